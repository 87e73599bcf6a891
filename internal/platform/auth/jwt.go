package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"lenderhub/internal/platform/config"
	"lenderhub/internal/platform/session"
)

// Claims are issued by the dashboard's identity provider. The user id is the
// registered subject.
type Claims struct {
	OrgID string `json:"org_id"`
	Role  string `json:"role"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Session converts validated claims into the caller's session.
func (c *Claims) Session() *session.Session {
	s := &session.Session{
		UserID: c.Subject,
		OrgID:  c.OrgID,
		Email:  c.Email,
		Role:   c.Role,
	}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s
}

type TokenService struct {
	config config.JWTConfig
	now    func() time.Time
}

func NewTokenService(cfg config.JWTConfig) *TokenService {
	return &TokenService{config: cfg, now: time.Now}
}

func (s *TokenService) GenerateAccessToken(userID, orgID, role, email string) (string, error) {
	if s.config.Secret == "" {
		return "", errors.New("jwt secret is not configured")
	}

	now := s.now()
	claims := Claims{
		OrgID: orgID,
		Role:  role,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

func (s *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	if s.config.Secret == "" {
		return nil, errors.New("jwt secret is not configured")
	}

	opts := []jwt.ParserOption{jwt.WithTimeFunc(s.now)}
	if s.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.config.Secret), nil
	}, opts...)

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" || claims.OrgID == "" {
		return nil, errors.New("token is missing subject or org")
	}
	return claims, nil
}
