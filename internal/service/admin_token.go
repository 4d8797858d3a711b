package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	adminIssuer = "govtwool"
	adminScope  = "admin"
)

var (
	ErrJWTInvalid = errors.New("jwt invalid")
	ErrJWTExpired = errors.New("jwt expired")
)

// AdminClaims autorizan operaciones de administracion (vaciar caches).
type AdminClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// AdminTokenService emite y valida tokens HS256 de administracion.
type AdminTokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewAdminTokenService(secret string, ttl time.Duration) *AdminTokenService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AdminTokenService{secret: []byte(secret), ttl: ttl}
}

// Enabled es false sin secreto: las rutas de admin quedan cerradas.
func (s *AdminTokenService) Enabled() bool {
	return s != nil && len(s.secret) > 0
}

func (s *AdminTokenService) Issue(subject string) (string, error) {
	if !s.Enabled() || strings.TrimSpace(subject) == "" {
		return "", ErrJWTInvalid
	}
	now := time.Now().UTC()
	claims := AdminClaims{
		Scope: adminScope,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    adminIssuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *AdminTokenService) Parse(token string) (AdminClaims, error) {
	if !s.Enabled() || strings.TrimSpace(token) == "" {
		return AdminClaims{}, ErrJWTInvalid
	}
	var claims AdminClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(adminIssuer),
	)
	_, err := parser.ParseWithClaims(token, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return AdminClaims{}, ErrJWTExpired
		}
		return AdminClaims{}, ErrJWTInvalid
	}
	if claims.Scope != adminScope || strings.TrimSpace(claims.Subject) == "" {
		return AdminClaims{}, ErrJWTInvalid
	}
	return claims, nil
}
