package config

import "time"

// WalletConfig configures the Wallet Service client.
type WalletConfig struct {
	BaseURL        string        `env:"WALLET_BASE_URL" envDefault:"http://localhost:9000"`
	AgentCode      string        `env:"WALLET_AG_CODE"`
	Secret         string        `env:"WALLET_SECRET"`
	UsernamePrefix string        `env:"WALLET_USERNAME_PREFIX" envDefault:"thai"`
	Timeout        time.Duration `env:"WALLET_TIMEOUT" envDefault:"15s"`
	// APIKey salts transaction hashes.
	APIKey string `env:"API_KEY"`
	// LedgerTTL bounds how long a completed hash is remembered.
	LedgerTTL time.Duration `env:"WALLET_LEDGER_TTL" envDefault:"720h"`
}

// BankingConfig configures the Banking Transfer Service client.
type BankingConfig struct {
	BaseURL      string        `env:"BANKING_BASE_URL" envDefault:"http://localhost:9100"`
	APIKeyHeader string        `env:"BANKING_API_KEY_HEADER" envDefault:"api-key"`
	APIKey       string        `env:"BANKING_API_KEY"`
	Timeout      time.Duration `env:"BANKING_TIMEOUT" envDefault:"30s"`
}
