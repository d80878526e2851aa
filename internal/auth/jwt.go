package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles issued by the identity provider.
const (
	RoleSuperAdmin = "SuperAdmin"
	RoleAdminStaff = "AdminStaff"
	RoleBuyer      = "Buyer"
)

// IsAdminRole reports whether role may use the back-office.
func IsAdminRole(role string) bool {
	return role == RoleSuperAdmin || role == RoleAdminStaff
}

// Claims is what we read from a bearer token. "sub" carries the user id.
type Claims struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the authenticated caller for one request.
type Identity struct {
	UserID string
	Role   string
	Name   string
}

func (i Identity) IsAdmin() bool {
	return IsAdminRole(i.Role)
}

// TokenManager signs and validates HS256 tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

// GenerateToken creates a signed token for a user. Used by the CLI and tests;
// production tokens come from the identity provider sharing the secret.
func (m *TokenManager) GenerateToken(id Identity) (string, error) {
	if id.UserID == "" {
		return "", errors.New("user id is required")
	}
	now := time.Now()
	claims := Claims{
		Role: id.Role,
		Name: id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken parses a token string and returns the caller identity.
func (m *TokenManager) ValidateToken(tokenString string) (Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return Identity{}, err
	}
	if !token.Valid {
		return Identity{}, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return Identity{}, errors.New("invalid subject claim")
	}
	return Identity{UserID: claims.Subject, Role: claims.Role, Name: claims.Name}, nil
}
