package totp

import (
	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload" // Load .env file automatically
)

// Config carries the process-level TOTP settings. Construct it once at startup
// and pass it down explicitly; the package keeps no global state.
type Config struct {
	EncryptionKey string `env:"TOTP_ENCRYPTION_KEY,required"`    // Base64-encoded 32-byte AES-256 key for secrets at rest
	Skew          int    `env:"TOTP_SKEW" envDefault:"1"`        // Accepted clock drift in periods on each side
	Issuer        string `env:"TOTP_ISSUER" envDefault:"mfakit"` // Issuer shown in authenticator apps
}

// LoadConfig parses the configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.EncryptionKey == "" {
		return Config{}, ErrEncryptionKeyNotSet
	}
	return cfg, nil
}
