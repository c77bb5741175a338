// internal/auth/seat.go
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for any seat token that fails verification.
var ErrInvalidToken = errors.New("invalid seat token")

// Seat identifies a participant of one game.
type Seat struct {
	GameID uuid.UUID
	Player string
}

type seatClaims struct {
	GameID string `json:"gid"`
	jwt.RegisteredClaims
}

// Signer issues and verifies EdDSA seat tokens. A zero ttl issues tokens without expiry.
type Signer struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	ttl        time.Duration
	now        func() time.Time
}

// NewSigner generates a fresh ed25519 key pair; tokens do not survive a restart.
func NewSigner(ttl time.Duration) (*Signer, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return &Signer{privateKey: priv, publicKey: pub, ttl: ttl, now: time.Now}, nil
}

// NewSignerFromFiles reads a raw ed25519 key pair from disk.
func NewSignerFromFiles(privatePath, publicPath string, ttl time.Duration) (*Signer, error) {
	priv, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}
	pub, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key file: %w", err)
	}
	if len(priv) != ed25519.PrivateKeySize || len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("unexpected ed25519 key sizes %d/%d", len(priv), len(pub))
	}
	return &Signer{privateKey: priv, publicKey: pub, ttl: ttl, now: time.Now}, nil
}

// ParseTokenTTL reads a TOKEN_EXPIRE_TIME value: "never", "0" or "" mean no expiry.
func ParseTokenTTL(s string) (time.Duration, error) {
	if s == "" || s == "never" || s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token expire time: %w", err)
	}
	return d, nil
}

// CreateSeatToken signs a token with sub = player and gid = gameID.
func (s *Signer) CreateSeatToken(gameID uuid.UUID, player string) (string, error) {
	now := s.now()
	claims := seatClaims{
		GameID: gameID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  player,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(s.privateKey)
}

// Authenticate verifies a token and returns the seat it grants.
func (s *Signer) Authenticate(tokenString string) (Seat, error) {
	var claims seatClaims
	t, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.publicKey, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return Seat{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !t.Valid || claims.Subject == "" {
		return Seat{}, ErrInvalidToken
	}
	gameID, err := uuid.Parse(claims.GameID)
	if err != nil {
		return Seat{}, fmt.Errorf("%w: bad game id", ErrInvalidToken)
	}
	return Seat{GameID: gameID, Player: claims.Subject}, nil
}
