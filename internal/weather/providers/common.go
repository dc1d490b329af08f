package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-now/internal/observability"
	"github.com/i474232898/weather-now/internal/weather"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

// statusError carries the HTTP status of a non-2xx upstream response.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.code)
}

// retryable reports whether another attempt could succeed.
func (e *statusError) retryable() bool {
	return e.code == http.StatusTooManyRequests || e.code >= 500
}

var (
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

func newCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// doRequestWithResilience executes the HTTP request with retries, exponential backoff,
// and a circuit breaker. With MaxRetries 0 it makes exactly one attempt.
func doRequestWithResilience(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	var attempt int

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)

		result, err := cb.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				resp.Body.Close()
				return nil, &statusError{code: resp.StatusCode}
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

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		var se *statusError
		if errors.As(err, &se) && !se.retryable() {
			return nil, err
		}
		if attempt >= cfg.Backoff.MaxRetries {
			return nil, err
		}

		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
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

// upstream is one remote JSON endpoint guarded by its own circuit breaker.
type upstream struct {
	name    string // metric label
	failMsg string // user-facing TransportError message
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	metrics *observability.Metrics
	logger  *slog.Logger
}

func newUpstream(name, failMsg string, httpCfg HTTPClientConfig, metrics *observability.Metrics, logger *slog.Logger) *upstream {
	return &upstream{
		name:    name,
		failMsg: failMsg,
		httpCfg: httpCfg,
		circuit: newCircuitBreaker(name),
		metrics: metrics,
		logger:  logger,
	}
}

// getJSON issues a GET to fullURL and decodes the body into dst. Every
// failure comes back as a *weather.TransportError.
func (u *upstream) getJSON(ctx context.Context, fullURL string, dst any) error {
	start := time.Now()
	resp, err := doRequestWithResilience(ctx, u.httpCfg, u.circuit, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, fullURL, nil)
	})
	if u.metrics != nil {
		u.metrics.UpstreamDuration.WithLabelValues(u.name).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		u.logger.Warn("upstream request failed", "upstream", u.name, "error", err)
		return u.transportError(err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		u.logger.Warn("upstream response undecodable", "upstream", u.name, "error", err)
		return u.transportError(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

func (u *upstream) transportError(err error) *weather.TransportError {
	te := &weather.TransportError{Message: u.failMsg, Err: err}
	var se *statusError
	if errors.As(err, &se) {
		te.StatusCode = se.code
	}
	return te
}
