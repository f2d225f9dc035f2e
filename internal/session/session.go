package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Ariet2003/cashier-service/internal/entity"
)

const CookieName = "session"

var ErrMalformed = errors.New("malformed session")

// Claims is the signed payload of a session cookie.
type Claims struct {
	UserID   int         `json:"userId"`
	ShiftID  int         `json:"shiftId"`
	Username string      `json:"username"`
	FullName string      `json:"fullName"`
	Role     entity.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Session() *entity.Session {
	return &entity.Session{
		UserID:   c.UserID,
		ShiftID:  c.ShiftID,
		Username: c.Username,
		FullName: c.FullName,
		Role:     c.Role,
	}
}

// Complete reports whether the claims carry the fields a session must have.
func (c *Claims) Complete() bool {
	return c.UserID > 0 && c.ShiftID > 0 && c.Role != ""
}

type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewCodec(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (c *Codec) Secret() []byte { return c.secret }

func (c *Codec) TTL() time.Duration { return c.ttl }

func (c *Codec) Encode(s *entity.Session) (string, error) {
	now := c.now()
	claims := &Claims{
		UserID:   s.UserID,
		ShiftID:  s.ShiftID,
		Username: s.Username,
		FullName: s.FullName,
		Role:     s.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", s.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies the signature and expiry and requires userId and shiftId.
// It never touches storage.
func (c *Codec) Decode(token string) (*entity.Session, error) {
	if token == "" {
		return nil, ErrMalformed
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if claims.UserID <= 0 || claims.ShiftID <= 0 {
		return nil, ErrMalformed
	}
	return claims.Session(), nil
}
