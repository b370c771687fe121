package weather

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff behaviour between retries.
type BackoffConfig struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
	// InitialInterval is the delay before the first retry.
	InitialInterval time.Duration
	// MaxInterval caps the exponentially growing delay.
	MaxInterval time.Duration
}

// httpClientConfig bundles the HTTP client and resilience settings.
type httpClientConfig struct {
	// client performs the actual requests.
	client *http.Client
	// backoff configures retry pacing.
	backoff BackoffConfig
}

var (
	// errRateLimited marks HTTP 429 responses.
	errRateLimited = errors.New("rate limited")
	// errServerError marks 5xx responses.
	errServerError = errors.New("server error")
	// errUnexpected marks any other non-2xx status.
	errUnexpected = errors.New("unexpected status code")
	// errCircuitOpen marks requests rejected by an open circuit breaker.
	errCircuitOpen = errors.New("circuit breaker open")
)

// doRequestWithResilience executes the HTTP request with retries, exponential
// backoff and a circuit breaker. The request is rebuilt per attempt because
// request bodies and contexts are single-use.
func doRequestWithResilience(
	ctx context.Context,
	cfg httpClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	var (
		attempt int
		lastErr error
	)

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}

		req = req.WithContext(ctx)

		result, err := cb.Execute(func() (any, error) {
			resp, execErr := cfg.client.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			// Rate limiting and server errors are retryable; other
			// non-2xx statuses are terminal for this attempt too, but
			// carry the status for diagnostics.
			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				resp.Body.Close()
				return nil, errRateLimited
			case resp.StatusCode >= http.StatusInternalServerError:
				resp.Body.Close()
				return nil, errServerError
			case resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices:
				resp.Body.Close()
				return nil, fmt.Errorf("%w: %d", errUnexpected, resp.StatusCode)
			}

			return resp, nil
		})
		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}

			return resp, nil
		}

		// An open circuit is not worth retrying against.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		lastErr = err
		if attempt >= cfg.backoff.MaxRetries {
			return nil, lastErr
		}

		delay := cfg.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if cfg.backoff.MaxInterval > 0 && delay > cfg.backoff.MaxInterval {
			delay = cfg.backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}
