// Package config loads the process-wide settings of the sign-in service.
// Values come from the environment, optionally seeded from .env files.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is built once at startup and shared read-only by every component
type Config struct {
	ServiceURI      string        // URI every signed challenge must carry
	TargetNetworkID uint16        // SS58 prefix used for display addresses
	SessionLifetime time.Duration // Lifetime of issued session tokens
	SigningSecret   []byte        // HMAC key for session tokens
	Issuer          string        // iss/aud claim of session tokens

	RPCEndpoint    string        // Substrate node used for balance lookups
	BalanceTimeout time.Duration // Upper bound on a single balance lookup
	TokenDecimals  int32         // Decimals of the native token
	TokenSymbol    string        // Symbol of the native token

	NonceTTL     time.Duration // Lifetime of an unused anti-forgery nonce
	RedisURL     string        // Nonce store and event stream; memory when empty
	HTTPAddr     string        // Listen address
	CookieSecure bool          // Mark the session cookie Secure
}

const (
	defaultNetworkID       = 2 // Kusama
	defaultSessionLifetime = 30 * 24 * time.Hour
	defaultIssuer          = "signet"
	defaultRPCEndpoint     = "wss://kusama-rpc.polkadot.io"
	defaultBalanceTimeout  = 5 * time.Second
	defaultTokenDecimals   = 12
	defaultTokenSymbol     = "KSM"
	defaultNonceTTL        = 10 * time.Minute
	defaultHTTPAddr        = ":9000"

	minSecretSize = 32
)

// LoadEnvFiles loads the given .env files when they exist. Variables already
// present in the environment win.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

// Load reads the environment into a Config. Missing required values are errors.
func Load() (*Config, error) {
	cfg := &Config{
		ServiceURI:  os.Getenv("SIGNET_SERVICE_URI"),
		Issuer:      getEnv("SIGNET_ISSUER", defaultIssuer),
		RPCEndpoint: getEnv("SIGNET_RPC_ENDPOINT", defaultRPCEndpoint),
		TokenSymbol: getEnv("SIGNET_TOKEN_SYMBOL", defaultTokenSymbol),
		RedisURL:    os.Getenv("SIGNET_REDIS_URL"),
		HTTPAddr:    getEnv("SIGNET_HTTP_ADDR", defaultHTTPAddr),
	}
	if cfg.ServiceURI == "" {
		return nil, errors.New("SIGNET_SERVICE_URI is required")
	}

	secret, err := parseSecret(os.Getenv("SIGNET_SIGNING_SECRET"))
	if err != nil {
		return nil, err
	}
	cfg.SigningSecret = secret

	network, err := getUint("SIGNET_NETWORK_ID", defaultNetworkID, 16383)
	if err != nil {
		return nil, err
	}
	cfg.TargetNetworkID = uint16(network)

	decimals, err := getUint("SIGNET_TOKEN_DECIMALS", defaultTokenDecimals, 38)
	if err != nil {
		return nil, err
	}
	cfg.TokenDecimals = int32(decimals)

	if cfg.SessionLifetime, err = getDuration("SIGNET_SESSION_TTL", defaultSessionLifetime); err != nil {
		return nil, err
	}
	if cfg.BalanceTimeout, err = getDuration("SIGNET_BALANCE_TIMEOUT", defaultBalanceTimeout); err != nil {
		return nil, err
	}
	if cfg.NonceTTL, err = getDuration("SIGNET_NONCE_TTL", defaultNonceTTL); err != nil {
		return nil, err
	}

	if v, ok := os.LookupEnv("SIGNET_COOKIE_SECURE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SIGNET_COOKIE_SECURE: %w", err)
		}
		cfg.CookieSecure = b
	}

	return cfg, nil
}

// parseSecret accepts a base64 value or, failing that, the raw string.
func parseSecret(raw string) ([]byte, error) {
	if raw == "" {
		return nil, errors.New("SIGNET_SIGNING_SECRET is required")
	}
	secret, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(secret) < minSecretSize {
		secret = []byte(raw)
	}
	if len(secret) < minSecretSize {
		return nil, fmt.Errorf("SIGNET_SIGNING_SECRET must be at least %d bytes", minSecretSize)
	}
	return secret, nil
}

func getEnv(key, fallback string) string {
	if v, exists := os.LookupEnv(key); exists && v != "" {
		return v
	}
	return fallback
}

func getUint(key string, fallback, max uint64) (uint64, error) {
	v, exists := os.LookupEnv(key)
	if !exists || v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n > max {
		return 0, fmt.Errorf("invalid %s: must be <= %d", key, max)
	}
	return n, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, exists := os.LookupEnv(key)
	if !exists || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be > 0", key)
	}
	return d, nil
}
