package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "altguard/pkg/domain-errors"
	"altguard/pkg/platform/middleware/auth"
)

// RoleModerator is the only role accepted on admin routes.
const RoleModerator = "moderator"

// Claims are the moderator access token claims.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService mints and validates moderator access tokens (HS256).
type JWTService struct {
	signingKey []byte
	issuer     string
}

func NewJWTService(signingKey string, issuer string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// GenerateModeratorToken is used by operators to mint tokens out of band (and by tests).
func (s *JWTService) GenerateModeratorToken(moderatorID string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: RoleModerator,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   moderatorID,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken satisfies auth.JWTValidator.
func (s *JWTService) ValidateToken(tokenString string) (*auth.JWTClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if claims.Subject == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token subject missing")
	}

	return &auth.JWTClaims{
		Subject: claims.Subject,
		Role:    claims.Role,
		JTI:     claims.ID,
	}, nil
}
