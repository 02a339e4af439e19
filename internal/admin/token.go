package admin

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"

	u "arkana/internal/utils"
)

const tokenIssuer = "arkana"

// CookieName is the cookie carrying the signed client token.
const CookieName = "arkana_session"

// Tokens signs and verifies the cookie that names a browser. The token holds
// only the client id; the admin flag stays in storage so a logout applies
// immediately.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens uses secret to sign client tokens. An empty secret is replaced by
// a random one, which invalidates every cookie on restart.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	key := []byte(secret)
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			panic(fmt.Sprintf("session secret: %v", err))
		}
		key = []byte(hex.EncodeToString(buf))
		u.Warn("No session secret configured, sessions will not survive a restart")
	}
	return &Tokens{secret: key, ttl: ttl}
}

func (t *Tokens) TTL() time.Duration { return t.ttl }

// NewClientID returns a fresh browser identifier.
func NewClientID() string {
	return xid.New().String()
}

// Issue returns a signed token naming clientID.
func (t *Tokens) Issue(clientID string) (string, error) {
	if clientID == "" {
		return "", errors.New("session: empty client id")
	}
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   clientID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse verifies token and returns the client id it names.
func (t *Tokens) Parse(token string) (string, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tk.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", errors.New("session: invalid claims")
	}
	if _, err := xid.FromString(claims.Subject); err != nil {
		return "", fmt.Errorf("session: bad client id: %w", err)
	}
	return claims.Subject, nil
}
