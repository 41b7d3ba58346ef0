// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// privateKey and publicKey sign and verify session tokens. Keys are
// generated fresh at startup: sessions are ephemeral by design and do not
// survive a restart, just like the room engines.
var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenExpireSec is seconds until token expiration (0 => never).
	tokenExpireSec int
)

// Init generates an ed25519 key pair and reads TOKEN_EXPIRE_TIME.
func Init() error {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}

	duration := os.Getenv("TOKEN_EXPIRE_TIME")
	switch duration {
	case "", "0", "never":
		tokenExpireSec = 0
	default:
		d, err := time.ParseDuration(duration)
		if err != nil {
			return fmt.Errorf("failed to parse token expire time: %w", err)
		}
		tokenExpireSec = int(d.Seconds())
	}
	return nil
}

// CreateSessionToken signs a JWT with "sub" = socketID, the stable identity
// a guest keeps across page loads within one server run.
func CreateSessionToken(socketID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": socketID,
	}
	if tokenExpireSec > 0 {
		claims["exp"] = time.Now().Add(time.Duration(tokenExpireSec) * time.Second).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateSessionToken verifies a token string and returns its "sub"
// field, else an error.
func AuthenticateSessionToken(tokenString string) (string, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid jwt claims")
	}
	socketID, ok := claims["sub"].(string)
	if !ok {
		return "", fmt.Errorf("missing sub in jwt")
	}
	return socketID, nil
}
