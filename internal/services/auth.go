package services

import (
	"crypto/subtle"
	"time"

	"todo-manager/internal/config"
	"todo-manager/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// AuthService issues and verifies session tokens for the single
// configured admin account. Tokens are stateless: there is no session
// store and no revocation list, and logout is purely a client-side
// discard.
type AuthService interface {
	Login(email, password string) (string, models.User, error)
	Verify(tokenString string) (models.User, error)
}

// Claims asserted by a session token.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type AuthServiceImpl struct {
	cfg config.AuthConfig
}

func NewAuthService(cfg config.AuthConfig) *AuthServiceImpl {
	return &AuthServiceImpl{cfg: cfg}
}

// Login checks the presented pair against the configured admin
// credentials and issues a signed token on success. The two failure
// causes (wrong email, wrong password) are deliberately not
// distinguished. The password comparison is plain-text equality — a
// known, documented weakness of this system, kept constant-time but not
// hashed.
func (s *AuthServiceImpl) Login(email, password string) (string, models.User, error) {
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.cfg.AdminEmail)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.cfg.AdminPassword)) == 1
	if !emailOK || !passOK {
		return "", models.User{}, models.ErrInvalidCredentials
	}

	user := models.User{Email: s.cfg.AdminEmail, Role: "admin"}

	now := time.Now()
	claims := Claims{
		Email: user.Email,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", models.User{}, err
	}
	return signed, user, nil
}

// Verify parses and validates a token, returning the identity it asserts.
// Signature and expiry failures collapse into ErrInvalidToken.
func (s *AuthServiceImpl) Verify(tokenString string) (models.User, error) {
	if tokenString == "" {
		return models.User{}, models.ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, models.ErrInvalidToken
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return models.User{}, models.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return models.User{}, models.ErrInvalidToken
	}
	return models.User{Email: claims.Email, Role: claims.Role}, nil
}
