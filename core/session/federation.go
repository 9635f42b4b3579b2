package session

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/placement/core/user"
)

// Federated identity providers offered on the login page.
const (
	ProviderGoogle    = "google"
	ProviderMicrosoft = "microsoft"
)

var providerNames = map[string]string{
	ProviderGoogle:    "Google",
	ProviderMicrosoft: "Microsoft",
}

var (
	ErrUnknownProvider = errors.New("unknown identity provider")
	errInvalidIDToken  = errors.New("invalid identity token")
)

// IdentityClaims is the payload of an ID token issued by the mock provider.
type IdentityClaims struct {
	jwt.StandardClaims
	Provider string    `json:"provider"`
	Role     user.Role `json:"role"`
}

// MockIdentityProvider stands in for an external sign-in service: it issues an
// HS256 ID token asserting the role the person picked, and verifies it on the
// way back.
type MockIdentityProvider struct {
	key     []byte
	expires time.Duration
	issuer  string
}

func NewMockIdentityProvider(key string, expires time.Duration, issuer string) *MockIdentityProvider {
	return &MockIdentityProvider{key: []byte(key), expires: expires, issuer: issuer}
}

// Issue signs in with provider as someone holding role.
func (p *MockIdentityProvider) Issue(provider string, role user.Role) (string, error) {
	if _, ok := providerNames[provider]; !ok {
		return "", ErrUnknownProvider
	}
	now := time.Now()
	claims := IdentityClaims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    p.issuer,
			Audience:  provider,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(p.expires).Unix(),
		},
		Provider: provider,
		Role:     role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(p.key)
	if err != nil {
		return "", errors.Wrap(err, "signing id token")
	}
	return ss, nil
}

// Verify checks the token signature and expiry and returns its claims.
func (p *MockIdentityProvider) Verify(token string) (*IdentityClaims, error) {
	claims := new(IdentityClaims)
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidIDToken
		}
		return p.key, nil
	})
	if err != nil || !parsed.Valid {
		return nil, errInvalidIDToken
	}
	if claims.Issuer != p.issuer {
		return nil, errInvalidIDToken
	}
	return claims, nil
}
