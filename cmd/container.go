// cmd/container.go
//
// Composition root. Owns infrastructure (DB, Redis, storage, mail) and wires
// the job queues, the saga processor and the scheduled cashback run.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Abraxas-365/rewardwallet/pkg/alertx"
	"github.com/Abraxas-365/rewardwallet/pkg/config"
	"github.com/Abraxas-365/rewardwallet/pkg/fsx"
	"github.com/Abraxas-365/rewardwallet/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/rewardwallet/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/rewardwallet/pkg/jobx"
	"github.com/Abraxas-365/rewardwallet/pkg/jobx/jobxmetrics"
	"github.com/Abraxas-365/rewardwallet/pkg/jobx/jobxredis"
	"github.com/Abraxas-365/rewardwallet/pkg/logx"
	"github.com/Abraxas-365/rewardwallet/pkg/notifx"
	"github.com/Abraxas-365/rewardwallet/pkg/notifx/notifxconsole"
	"github.com/Abraxas-365/rewardwallet/pkg/notifx/notifxses"
	"github.com/Abraxas-365/rewardwallet/pkg/wallet"
	"github.com/Abraxas-365/rewardwallet/pkg/wallet/walletclient"
	"github.com/Abraxas-365/rewardwallet/pkg/wallet/walletinfra"
	"github.com/Abraxas-365/rewardwallet/pkg/wallet/walletsrv"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and the wired wallet components.
type Container struct {
	Config *config.Config

	// Infrastructure
	DB         *sqlx.DB
	Redis      *redis.Client
	FileSystem fsx.FileSystem
	Mailer     *notifx.Client
	Alerts     *alertx.Service
	Metrics    *jobxmetrics.Metrics

	// Queues
	WalletJobs *jobx.Client
	CronJobs   *jobx.Client

	// Repositories
	Customers    *walletinfra.PostgresCustomerRepository
	CompanyBanks *walletinfra.PostgresCompanyBankRepository
	Transactions *walletinfra.PostgresTransactionRepository
	Cashbacks    *walletinfra.PostgresCashbackHistoryRepository
	JobEvents    *walletinfra.PostgresJobEventRepository

	// Services
	Processor  *walletsrv.Processor
	Producer   *walletsrv.Producer
	DeadLetter *walletsrv.DeadLetter
	Cashback   *walletsrv.CashbackJob
}

func NewContainer(ctx context.Context, cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure(ctx)
	c.initQueues()
	c.initModules()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure: DB, Redis, file storage, mail
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure(ctx context.Context) {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Database
	db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
	if err != nil {
		logx.Fatalf("Failed to connect to database: %v", err)
	}
	db.SetMaxOpenConns(c.Config.Database.MaxOpenConns)
	db.SetMaxIdleConns(c.Config.Database.MaxIdleConns)
	db.SetConnMaxLifetime(c.Config.Database.ConnMaxLifetime)
	c.DB = db
	logx.Info("  ✅ Database connected")

	if err := walletinfra.Migrate(db.DB); err != nil {
		logx.Fatalf("Failed to migrate database: %v", err)
	}
	logx.Info("  ✅ Migrations applied")

	// 2. Redis
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if _, err := c.Redis.Ping(ctx).Result(); err != nil {
		logx.Fatalf("Failed to connect to Redis: %v (Redis is required)", err)
	}
	logx.Info("  ✅ Redis connected")

	// 3. File storage and mail
	c.initFileStorage(ctx)
	c.initMailer(ctx)

	logx.Info("✅ Infrastructure initialized")
}

func (c *Container) initFileStorage(ctx context.Context) {
	storage := c.Config.Storage

	switch storage.Mode {
	case "s3":
		awsCfg := c.loadAWSConfig(ctx, storage.AWSRegion)
		c.FileSystem = fsxs3.NewS3FileSystem(s3.NewFromConfig(awsCfg), storage.Bucket, storage.Prefix)
		logx.Infof("  ✅ S3 file system configured (bucket: %s, region: %s)", storage.Bucket, storage.AWSRegion)

	default:
		localFS, err := fsxlocal.NewLocalFileSystem(storage.LocalDir)
		if err != nil {
			logx.Fatalf("Failed to initialize local file system: %v", err)
		}
		c.FileSystem = localFS
		logx.Infof("  ✅ Local file system configured (path: %s)", localFS.BasePath())
	}
}

func (c *Container) initMailer(ctx context.Context) {
	n := c.Config.Notifx
	from := fmt.Sprintf("%s <%s>", n.FromName, n.FromAddress)

	var provider notifx.EmailSender
	switch n.Provider {
	case "ses":
		awsCfg := c.loadAWSConfig(ctx, n.AWSRegion)
		provider = notifxses.NewSESProvider(ses.NewFromConfig(awsCfg), from)
	default:
		provider = notifxconsole.NewConsoleProvider()
	}
	c.Mailer = notifx.NewClient(provider, from, n.AlertTo)

	alertOpts := []alertx.Option{alertx.WithLogger(logx.GetDefaultLogger())}
	if len(n.AlertTo) > 0 {
		alertOpts = append(alertOpts, alertx.WithMailer(c.Mailer))
	}
	c.Alerts = alertx.NewService(alertOpts...)
	logx.Infof("  ✅ Alerts configured (provider: %s, recipients: %d)", n.Provider, len(n.AlertTo))
}

func (c *Container) loadAWSConfig(ctx context.Context, region string) aws.Config {
	cfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(region))
	if err != nil {
		logx.Fatalf("Unable to load AWS SDK config: %v", err)
	}
	return cfg
}

// ---------------------------------------------------------------------------
// Queues
// ---------------------------------------------------------------------------

func (c *Container) initQueues() {
	logx.Info("📬 Initializing job queues...")

	jc := c.Config.Jobx
	redisOpts := jobxredis.Options{Prefix: jc.Prefix, CompletedTTL: jc.CompletedTTL}
	workerOpts := []jobx.WorkerOption{
		jobx.WithPollInterval(jc.PollInterval),
		jobx.WithStalledInterval(jc.StalledInterval),
		jobx.WithLeaseDuration(jc.LeaseDuration),
		jobx.WithShutdownTimeout(jc.ShutdownTimeout),
		jobx.WithDefaultAttempts(jc.Attempts),
		jobx.WithDefaultBackoff(jobx.Backoff{Type: jobx.BackoffType(jc.BackoffType), Delay: jc.BackoffDelay}),
	}

	c.WalletJobs = jobx.NewClient(
		jobxredis.NewRedisQueue(c.Redis, jc.Queue, redisOpts),
		append(workerOpts, jobx.WithConcurrency(jc.Concurrency))...,
	)
	c.CronJobs = jobx.NewClient(
		jobxredis.NewRedisQueue(c.Redis, c.Config.Cashback.Queue, redisOpts),
		append(workerOpts, jobx.WithConcurrency(c.Config.Cashback.Concurrency))...,
	)

	c.Metrics = jobxmetrics.New(prometheus.DefaultRegisterer)
	for _, client := range []*jobx.Client{c.WalletJobs, c.CronJobs} {
		client.OnEvent(c.Metrics.Listener())
		client.OnEvent(walletsrv.LogEvents(logx.GetDefaultLogger()))
	}

	logx.Infof("  ✅ Queues ready (%s, %s)", jc.Queue, c.Config.Cashback.Queue)
}

// ---------------------------------------------------------------------------
// Module composition
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	logx.Info("📦 Initializing modules...")

	c.Customers = walletinfra.NewPostgresCustomerRepository(c.DB)
	c.CompanyBanks = walletinfra.NewPostgresCompanyBankRepository(c.DB)
	c.Transactions = walletinfra.NewPostgresTransactionRepository(c.DB)
	c.Cashbacks = walletinfra.NewPostgresCashbackHistoryRepository(c.DB)
	c.JobEvents = walletinfra.NewPostgresJobEventRepository(c.DB)

	wallets := walletclient.NewWalletClient(c.Config.Wallet)
	banking := walletclient.NewBankingClient(c.Config.Banking)
	ledger := walletinfra.NewRedisProcessedLedger(c.Redis, "", c.Config.Wallet.LedgerTTL)

	c.Processor = walletsrv.NewProcessor(
		wallets, banking, c.Customers, c.CompanyBanks, c.Transactions, c.Alerts,
		walletsrv.WithLedger(ledger),
		walletsrv.WithHasher(wallet.NewHasher(c.Config.Wallet.APIKey)),
	)
	c.Processor.Register(c.WalletJobs)
	logx.Info("  ✅ Saga processor registered")

	var producerOpts []walletsrv.ProducerOption
	if c.Config.Jobx.AwaitResult {
		producerOpts = append(producerOpts, walletsrv.WithAwait(c.Config.Jobx.AwaitTimeout))
	}
	c.Producer = walletsrv.NewProducer(c.WalletJobs, producerOpts...)

	c.DeadLetter = walletsrv.NewDeadLetter(c.JobEvents,
		walletsrv.WithArchive(c.FileSystem),
		walletsrv.WithReplayer(c.Producer),
	)
	c.WalletJobs.OnFailed(c.DeadLetter.OnFailed)
	c.CronJobs.OnFailed(c.DeadLetter.OnFailed)
	logx.Info("  ✅ Dead-letter handler registered")

	c.Cashback = walletsrv.NewCashbackJob(c.Customers, wallets, c.Cashbacks, c.Producer,
		walletsrv.WithLocation(time.FixedZone("cashback", c.Config.Cashback.UTCOffsetHours*3600)),
	)
	c.CronJobs.Register(c.Config.Cashback.JobName, c.Cashback.Handle)
	logx.Info("  ✅ Cashback job registered")
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// ScheduleRecurring stores the next cashback occurrence when enabled.
func (c *Container) ScheduleRecurring(ctx context.Context) error {
	if !c.Config.Cashback.Enabled {
		logx.Info("⏸️ Cashback schedule disabled")
		return nil
	}
	job, err := c.CronJobs.Repeat(ctx, c.Config.Cashback.JobName, c.Config.Cashback.Schedule, nil)
	if err != nil {
		return err
	}
	if job != nil {
		logx.Infof("🗓️ Cashback scheduled for %s", job.ReadyAt.Format(time.RFC3339))
	}
	return nil
}

// Queues returns every queue the process works on.
func (c *Container) Queues() []jobx.Queue {
	return []jobx.Queue{c.WalletJobs.Queue(), c.CronJobs.Queue()}
}

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("  ✅ Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
}
