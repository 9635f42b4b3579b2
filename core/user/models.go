package user

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/placement/core"
)

type Role string

// Roles
const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

var AllRoles = []Role{RoleStudent, RoleAdmin}

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// Home is the landing path of the role's dashboard.
func (r Role) Home() string {
	return "/" + string(r)
}

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         Role   `json:"role"`
	ProfileImage string `json:"profile_image,omitempty"`
	PasswordHash []byte `json:"-"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// CheckPassword compares pwd with the account's password.
// Accounts without a password accept any credential.
func (u *User) CheckPassword(pwd string) error {
	if len(u.PasswordHash) == 0 {
		return nil
	}
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u User) IsStudent() bool { return u.Role == RoleStudent }

// ProfilePatch holds the mutable profile fields. Nil fields are left untouched.
type ProfilePatch struct {
	Name         *string `json:"name" validate:"omitempty,notblank"`
	Email        *string `json:"email" validate:"omitempty,email"`
	ProfileImage *string `json:"profile_image"`
}

// Apply returns usr with the patch applied. ID and Role never change.
func (p ProfilePatch) Apply(usr User) User {
	if p.Name != nil {
		usr.Name = core.CleanString(*p.Name)
	}
	if p.Email != nil {
		usr.Email = core.CleanString(*p.Email, true /* lower */)
	}
	if p.ProfileImage != nil {
		usr.ProfileImage = core.CleanString(*p.ProfileImage)
	}
	return usr
}

// DemoAccounts is the fixed directory of mock accounts.
func DemoAccounts() []User {
	return []User{
		{
			ID:           "s1",
			Name:         "John Student",
			Email:        "student@example.com",
			Role:         RoleStudent,
			ProfileImage: "https://ui-avatars.com/api/?name=John+Student&background=0E7490&color=fff",
		},
		{
			ID:           "a1",
			Name:         "Admin User",
			Email:        "admin@example.com",
			Role:         RoleAdmin,
			ProfileImage: "https://ui-avatars.com/api/?name=Admin+User&background=10B981&color=fff",
		},
	}
}
