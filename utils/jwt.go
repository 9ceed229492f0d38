package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"teamroster/apperr"
	"teamroster/models"
)

// Claims is the identity embedded in every token. No expiry is set: a token
// stays valid until the signing secret changes.
type Claims struct {
	UserID uint        `json:"id"`
	Role   models.Role `json:"role"`
	TeamID *uint       `json:"teamId,omitempty"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies identity tokens with a process-wide secret.
type TokenService struct {
	secret []byte
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret)}
}

// ClaimsFor builds the claims for a stored user.
func ClaimsFor(user *models.User) Claims {
	return Claims{
		UserID: user.ID,
		Role:   user.Role,
		TeamID: user.TeamID,
	}
}

// Issue signs claims with HS256.
func (s *TokenService) Issue(claims Claims) (string, error) {
	return s.sign(&claims)
}

// IssueRaw signs an arbitrary payload.
func (s *TokenService) IssueRaw(payload jwt.MapClaims) (string, error) {
	return s.sign(payload)
}

func (s *TokenService) sign(claims jwt.Claims) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("JWT_SECRET is not set: %w", apperr.ErrConfig)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token into Claims and requires a role claim. Claims of the
// wrong type fail verification.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Role == "" {
		return nil, fmt.Errorf("token has no role claim: %w", apperr.ErrInvalidToken)
	}
	return claims, nil
}

// Decode parses a token and trusts any correctly signed payload. Fields of an
// unexpected type are left at their zero value instead of failing the request.
func (s *TokenService) Decode(tokenString string) (*Claims, error) {
	raw, err := s.DecodeRaw(tokenString)
	if err != nil {
		return nil, err
	}

	claims := &Claims{}
	claims.UserID, _ = uintClaim(raw["id"])
	if role, ok := raw["role"].(string); ok {
		claims.Role = models.Role(role)
	}
	if teamID, ok := uintClaim(raw["teamId"]); ok {
		claims.TeamID = &teamID
	}
	return claims, nil
}

// uintClaim reads a JSON number or a numeric string as an id.
func uintClaim(v interface{}) (uint, bool) {
	switch n := v.(type) {
	case float64:
		if n >= 0 && n == math.Trunc(n) {
			return uint(n), true
		}
	case string:
		if id, err := strconv.ParseUint(n, 10, 64); err == nil {
			return uint(id), true
		}
	}
	return 0, false
}

// DecodeRaw returns the signature-checked payload without imposing a shape.
func (s *TokenService) DecodeRaw(tokenString string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *TokenService) parse(tokenString string, claims jwt.Claims) (*jwt.Token, error) {
	if len(s.secret) == 0 {
		return nil, fmt.Errorf("JWT_SECRET is not set: %w", apperr.ErrConfig)
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, apperr.ErrInvalidToken
	}
	return token, nil
}
