package user

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/placement/core"
)

// password policy
const (
	PasswordMinLen = 8
	pwdMaxSim      = .7
)

var specialRegex = regexp.MustCompile("[^A-Za-z0-9]")

// CheckPasswordPolicy applies the password policy:
//   - at least PasswordMinLen characters
//   - no whitespace
//   - not entirely numeric
//   - 1 upper, 1 lower, 1 digit and 1 special character
//   - not too similar to any of attrs (names, e-mails)
func CheckPasswordPolicy(pwd string, attrs ...string) error {
	fail := func(msg string) error {
		return core.NewValidationMessage("Please choose a stronger password", core.FieldError{Field: "password", Error: msg})
	}

	if len([]rune(pwd)) < PasswordMinLen {
		return fail(fmt.Sprintf("password must contain at least %d characters", PasswordMinLen))
	}

	var digits int
	var hasUpper, hasLower bool
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			return fail("password must not contain whitespace")
		}
		if unicode.IsDigit(char) {
			digits++
		}
		hasUpper = hasUpper || unicode.IsUpper(char)
		hasLower = hasLower || unicode.IsLower(char)
	}
	if digits == len(pwd) {
		return fail("password cannot be entirely numeric")
	}
	if !(hasUpper && hasLower && digits > 0 && specialRegex.MatchString(pwd)) {
		return fail("password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character")
	}

	lpwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if attr == "" {
			continue
		}
		ratio := difflib.NewMatcher(strings.Split(lpwd, ""), strings.Split(attr, "")).QuickRatio()
		if ratio >= pwdMaxSim {
			return fail("password cannot be similar to user attributes")
		}
	}
	return nil
}
