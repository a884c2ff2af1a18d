package config

import "time"

// JobxConfig configures the money-movement job queue.
type JobxConfig struct {
	Queue           string        `env:"JOBX_QUEUE" envDefault:"wallet"`
	Prefix          string        `env:"JOBX_PREFIX" envDefault:"jobx"`
	Attempts        int           `env:"JOBX_ATTEMPTS" envDefault:"3"`
	BackoffType     string        `env:"JOBX_BACKOFF_TYPE" envDefault:"exponential"`
	BackoffDelay    time.Duration `env:"JOBX_BACKOFF_DELAY" envDefault:"1s"`
	Concurrency     int           `env:"JOBX_CONCURRENCY" envDefault:"5"`
	PollInterval    time.Duration `env:"JOBX_POLL_INTERVAL" envDefault:"500ms"`
	StalledInterval time.Duration `env:"JOBX_STALLED_INTERVAL" envDefault:"3500ms"`
	LeaseDuration   time.Duration `env:"JOBX_LEASE_DURATION" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"JOBX_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	CompletedTTL    time.Duration `env:"JOBX_COMPLETED_TTL" envDefault:"24h"`

	// AwaitResult makes producers block until the job terminates.
	AwaitResult  bool          `env:"JOBX_AWAIT_RESULT" envDefault:"true"`
	AwaitTimeout time.Duration `env:"JOBX_AWAIT_TIMEOUT" envDefault:"2m"`
}

// CashbackConfig configures the monthly cashback run.
type CashbackConfig struct {
	Enabled bool   `env:"CASHBACK_ENABLED" envDefault:"true"`
	Queue   string `env:"CASHBACK_QUEUE" envDefault:"cron"`
	JobName string `env:"CASHBACK_JOB_NAME" envDefault:"cashback"`
	// Schedule is a five field cron expression, optionally CRON_TZ prefixed.
	Schedule string `env:"CASHBACK_SCHEDULE" envDefault:"CRON_TZ=Asia/Bangkok 0 0 1 * *"`
	// UTCOffsetHours is the fixed offset used to compute the reporting period.
	UTCOffsetHours int `env:"CASHBACK_UTC_OFFSET_HOURS" envDefault:"7"`
	Concurrency    int `env:"CASHBACK_CONCURRENCY" envDefault:"1"`
}
