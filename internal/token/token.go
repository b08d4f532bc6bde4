package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TTL is the fixed validity window of every issued token.
const TTL = 2 * time.Hour

// ErrInvalidToken covers bad signature, malformed tokens and expiry alike;
// callers are not told which it was.
var ErrInvalidToken = errors.New("invalid token")

// Service signs and verifies the stateless identity tokens used by the API.
type Service struct {
	secret []byte
}

func NewService(secret string) *Service {
	return &Service{secret: []byte(secret)}
}

// Issue wraps the caller-supplied claims in a signed token expiring in two
// hours. The claims are not validated against any schema.
func (s *Service) Issue(claims map[string]any) (string, error) {
	mapClaims := jwt.MapClaims{}
	for k, v := range claims {
		mapClaims[k] = v
	}
	now := time.Now()
	mapClaims["exp"] = now.Add(TTL).Unix()
	mapClaims["iat"] = now.Unix()
	mapClaims["jti"] = uuid.New().String()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, mapClaims)
	return tok.SignedString(s.secret)
}

// Verify returns the decoded claims if the signature checks out and the token
// has not expired.
func (s *Service) Verify(tokenString string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
