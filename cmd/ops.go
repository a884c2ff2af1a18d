package main

import (
	"github.com/Abraxas-365/rewardwallet/pkg/errx"
	"github.com/Abraxas-365/rewardwallet/pkg/kernel"
	"github.com/Abraxas-365/rewardwallet/pkg/logx"
	"github.com/Abraxas-365/rewardwallet/pkg/wallet"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// newOpsApp builds the operator API: health, metrics, dead letters and
// manual money movements.
func newOpsApp(container *Container) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Reward Wallet Ops",
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler(container.Config.Server.IsProduction()),
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: func() string { return "req-" + uuid.NewString() },
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${reqHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	app.Get("/health", healthCheckHandler(container))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	h := &opsHandlers{c: container}
	api := app.Group("/api/v1")

	// Dead letters
	api.Get("/dead-letters", h.listDeadLetters)
	api.Get("/dead-letters/:id", h.getDeadLetter)
	api.Post("/dead-letters/:id/replay", h.replayDeadLetter)

	// Money movements
	api.Post("/jobs/deposit", h.produceDeposit)
	api.Post("/jobs/withdraw", h.produceWithdraw)
	api.Post("/jobs/withdraw-and-waive", h.produceWithdrawAndWaive)
	api.Get("/jobs/:id", h.getJob)

	// Cashback
	api.Post("/cashback/run", h.runCashback)

	// Company bank balance adjustments
	api.Post("/company-banks/:account/increase", h.adjustCompanyBank(true))
	api.Post("/company-banks/:account/decrease", h.adjustCompanyBank(false))

	app.Use(notFoundHandler)

	logx.Info("📋 Route Summary:")
	logx.Info("   ├─ Health: /health, /metrics")
	logx.Info("   ├─ Dead letters: /api/v1/dead-letters/*")
	logx.Info("   ├─ Jobs: /api/v1/jobs/*")
	logx.Info("   └─ Admin: /api/v1/cashback/run, /api/v1/company-banks/*")

	return app
}

type opsHandlers struct {
	c *Container
}

func (h *opsHandlers) listDeadLetters(c *fiber.Ctx) error {
	page, err := h.c.DeadLetter.List(c.UserContext(), kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", kernel.DefaultPageSize),
	})
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *opsHandlers) getDeadLetter(c *fiber.Ctx) error {
	ev, err := h.c.DeadLetter.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(ev)
}

func (h *opsHandlers) replayDeadLetter(c *fiber.Ctx) error {
	job, err := h.c.DeadLetter.Replay(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"job_id": job.ID,
		"name":   job.Name,
		"status": job.Status,
	})
}

func (h *opsHandlers) produceDeposit(c *fiber.Ctx) error {
	var req wallet.DepositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	res, err := h.c.Producer.ProduceDeposit(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(res)
}

func (h *opsHandlers) produceWithdraw(c *fiber.Ctx) error {
	var req wallet.WithdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	res, err := h.c.Producer.ProduceWithdraw(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(res)
}

func (h *opsHandlers) produceWithdrawAndWaive(c *fiber.Ctx) error {
	var req wallet.WithdrawAndWaiveRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	res, err := h.c.Producer.ProduceWithdrawAndWaive(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(res)
}

func (h *opsHandlers) getJob(c *fiber.Ctx) error {
	job, err := h.c.WalletJobs.GetJob(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(job)
}

func (h *opsHandlers) runCashback(c *fiber.Ctx) error {
	job, err := h.c.CronJobs.Enqueue(c.UserContext(), h.c.Config.Cashback.JobName, nil)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": job.ID})
}

type balanceAdjustment struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *opsHandlers) adjustCompanyBank(increase bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body balanceAdjustment
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		account := c.Params("account")
		var (
			bank *wallet.CompanyBank
			err  error
		)
		if increase {
			bank, err = h.c.CompanyBanks.IncreaseBalance(c.UserContext(), account, body.Amount)
		} else {
			bank, err = h.c.CompanyBanks.DecreaseBalance(c.UserContext(), account, body.Amount)
		}
		if err != nil {
			return err
		}
		return c.JSON(bank)
	}
}

// healthCheckHandler reports database and queue reachability.
func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":  "healthy",
			"service": "rewardwallet",
		}

		if err := container.DB.PingContext(c.UserContext()); err != nil {
			health["db"] = "unhealthy"
			health["db_error"] = err.Error()
			health["status"] = "degraded"
		} else {
			health["db"] = "healthy"
		}

		queues := fiber.Map{}
		for _, q := range container.Queues() {
			if err := q.Ping(c.UserContext()); err != nil {
				queues[q.Name()] = fiber.Map{"status": "unhealthy", "error": err.Error()}
				health["status"] = "degraded"
				continue
			}
			counts, err := q.Counts(c.UserContext())
			if err != nil {
				queues[q.Name()] = fiber.Map{"status": "unhealthy", "error": err.Error()}
				health["status"] = "degraded"
				continue
			}
			queues[q.Name()] = fiber.Map{"status": "healthy", "counts": counts}
		}
		health["queues"] = queues

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(health)
	}
}

// notFoundHandler handles 404 errors
func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "Route not found",
		"code":       "NOT_FOUND",
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": c.Get("X-Request-ID"),
	})
}

// globalErrorHandler converts internal errors to standard HTTP responses.
// The underlying cause is only exposed outside production.
func globalErrorHandler(production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		logx.WithFields(logx.Fields{
			"path":       c.Path(),
			"method":     c.Method(),
			"ip":         c.IP(),
			"request_id": c.Get("X-Request-ID"),
		}).Errorf("Request error: %v", err)

		if e, ok := err.(*fiber.Error); ok {
			return c.Status(e.Code).JSON(fiber.Map{
				"error":      e.Message,
				"code":       "FIBER_ERROR",
				"status":     e.Code,
				"request_id": c.Get("X-Request-ID"),
			})
		}

		e := errx.FromError(err)
		resp := e.ToHTTPResponse(!production)
		resp.RequestID = c.Get("X-Request-ID")
		return c.Status(e.HTTPStatus).JSON(resp)
	}
}
