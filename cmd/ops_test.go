package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Abraxas-365/rewardwallet/pkg/errx"
	"github.com/Abraxas-365/rewardwallet/pkg/wallet"
	"github.com/gofiber/fiber/v2"
)

func errorApp(production bool, err error) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler(production),
	})
	app.Get("/fail", func(*fiber.Ctx) error { return err })
	return app
}

func doFail(t *testing.T, app *fiber.App) (int, errx.HTTPErrorResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	req.Header.Set("X-Request-ID", "req-1")
	res, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	var body errx.HTTPErrorResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	return res.StatusCode, body
}

func TestGlobalErrorHandler_CodedError(t *testing.T) {
	cause := errors.New("pq: no rows")
	err := wallet.NewErrorWithCause(wallet.ErrJobEventNotFound, cause).WithDetail("id", "dl-1")

	status, body := doFail(t, errorApp(false, err))
	if status != http.StatusNotFound || body.Status != http.StatusNotFound {
		t.Fatalf("unexpected status %d: %+v", status, body)
	}
	if body.Code != err.Code || body.RequestID != "req-1" || body.Details["id"] != "dl-1" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.UnderlyingError != "pq: no rows" {
		t.Fatalf("expected cause outside production, got %q", body.UnderlyingError)
	}

	_, body = doFail(t, errorApp(true, err))
	if body.UnderlyingError != "" {
		t.Fatalf("cause leaked in production: %q", body.UnderlyingError)
	}
}

func TestGlobalErrorHandler_PlainError(t *testing.T) {
	status, body := doFail(t, errorApp(true, errors.New("boom")))
	if status != http.StatusInternalServerError || body.Code != "INTERNAL_ERROR" {
		t.Fatalf("unexpected status %d: %+v", status, body)
	}
	if body.RequestID != "req-1" || body.UnderlyingError != "" {
		t.Fatalf("unexpected body: %+v", body)
	}
}
