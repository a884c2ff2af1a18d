package config

// NotifxConfig configures alert e-mail.
type NotifxConfig struct {
	Provider    string   `env:"NOTIFX_PROVIDER" envDefault:"console"`
	FromAddress string   `env:"NOTIFX_FROM_ADDRESS" envDefault:"noreply@rewardwallet.local"`
	FromName    string   `env:"NOTIFX_FROM_NAME" envDefault:"Reward Wallet"`
	AlertTo     []string `env:"NOTIFX_ALERT_TO" envSeparator:","`
	AWSRegion   string   `env:"NOTIFX_AWS_REGION" envDefault:"ap-southeast-1"`
}
