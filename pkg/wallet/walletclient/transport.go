// Package walletclient implements the Wallet Service and Banking Transfer
// Service ports over HTTP. Every call runs through a circuit breaker.
package walletclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Abraxas-365/rewardwallet/pkg/logx"
	"github.com/sony/gobreaker"
)

const maxErrorBody = 4 << 10

func newBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logx.WithFields(logx.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
				Warn("walletclient: circuit breaker state changed")
		},
	})
}

// transport posts JSON through a breaker.
type transport struct {
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	header  http.Header
}

func newTransport(name string, timeout time.Duration, header http.Header) *transport {
	return &transport{
		http:    &http.Client{Timeout: timeout},
		breaker: newBreaker(name),
		header:  header,
	}
}

// postJSON sends body and returns the response payload. Non-2xx statuses are
// errors; business codes inside the payload are checked by the caller.
func (t *transport) postJSON(ctx context.Context, url string, body any) ([]byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, clientErrors.NewWithCause(ErrRequestFailed, err).WithDetail("url", url)
	}

	res, err := t.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		for k, vs := range t.header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}

		resp, err := t.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			if len(data) > maxErrorBody {
				data = data[:maxErrorBody]
			}
			return nil, &statusError{code: resp.StatusCode, body: string(data)}
		}
		return data, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, clientErrors.NewWithCause(ErrCircuitOpen, err).WithDetail("breaker", t.breaker.Name())
		}
		e := clientErrors.NewWithCause(ErrRequestFailed, err).WithDetail("url", url)
		var se *statusError
		if errors.As(err, &se) {
			e.WithDetail("status", se.code)
		}
		return nil, e
	}
	return res.([]byte), nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return http.StatusText(e.code) + ": " + e.body
}
