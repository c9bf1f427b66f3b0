package tokenizer

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/layer-3/signet/config"
	"github.com/layer-3/signet/core"
	"github.com/layer-3/signet/ports"
	"github.com/shopspring/decimal"
)

const AudienceSession = "session"

// JWTTokenizer implements the Tokenizer interface using HMAC signed JWTs
type JWTTokenizer struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewJWTTokenizer creates a new JWT tokenizer
func NewJWTTokenizer(cfg *config.Config) ports.Tokenizer {
	return &JWTTokenizer{
		secret: cfg.SigningSecret,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
}

// SessionToToken signs the session claims
func (j *JWTTokenizer) SessionToToken(session core.SessionToken) (string, error) {
	if session.SubjectID == "" {
		return "", fmt.Errorf("session without subject: %w", core.ErrInvalidToken)
	}

	balance := session.Balance
	if balance == nil {
		balance = new(big.Int)
	}

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.SubjectID,
			ID:        session.ID,
			Issuer:    j.issuer,
			Audience:  jwt.ClaimStrings{AudienceSession},
			IssuedAt:  jwt.NewNumericDate(session.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
		Name:    session.DisplayName,
		Balance: decimal.NewFromBigInt(balance, 0).String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signedToken, nil
}

// TokenToSession verifies a session token and returns its claims
func (j *JWTTokenizer) TokenToSession(tokenStr string) (core.SessionToken, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(AudienceSession),
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return core.SessionToken{}, core.ErrTokenExpired
		}
		return core.SessionToken{}, fmt.Errorf("failed to parse session token: %v: %w", err, core.ErrInvalidToken)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Subject == "" || claims.IssuedAt == nil {
		return core.SessionToken{}, core.ErrInvalidToken
	}

	balance, err := decimal.NewFromString(claims.Balance)
	if err != nil || !balance.IsInteger() || balance.IsNegative() {
		return core.SessionToken{}, fmt.Errorf("bad balance claim: %w", core.ErrInvalidToken)
	}

	return core.SessionToken{
		ID:          claims.ID,
		SubjectID:   claims.Subject,
		DisplayName: claims.Name,
		Balance:     balance.BigInt(),
		IssuedAt:    claims.IssuedAt.Time,
		ExpiresAt:   claims.ExpiresAt.Time,
	}, nil
}
