package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// Claims is the bearer token payload.
type Claims struct {
	UID   string `json:"uid"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Principal converts verified claims into the request identity.
func (c *Claims) Principal() (model.Principal, error) {
	id, err := uuid.Parse(c.UID)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: bad uid", ErrInvalidToken)
	}
	role, err := model.ParseRole(c.Role)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return model.Principal{UserID: id, Role: role, DisplayName: c.Name, Email: c.Email}, nil
}

type JWTService struct {
	secret []byte
	issuer string
	expiry time.Duration
	now    func() time.Time
}

func NewJWTService(secret, issuer string, expiry time.Duration) *JWTService {
	return &JWTService{
		secret: []byte(secret),
		issuer: issuer,
		expiry: expiry,
		now:    time.Now,
	}
}

func (s *JWTService) Expiry() time.Duration {
	return s.expiry
}

// Generate signs an HS256 token for p.
func (s *JWTService) Generate(p model.Principal) (string, error) {
	now := s.now()
	claims := Claims{
		UID:   p.UserID.String(),
		Name:  p.DisplayName,
		Email: p.Email,
		Role:  string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   p.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, issuer and expiry.
func (s *JWTService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
