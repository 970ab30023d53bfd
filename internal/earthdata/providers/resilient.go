package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/Arnobrizwan/ecosphere-ai-farming-simulator-sub001/internal/earthdata"
)

// RetryPolicy isolates retry behaviour from transport: how many attempts
// a logical call gets and how long to wait between them. Delay grows
// with the attempt number and is capped at MaxDelay.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy matches the budget both provider adapters use.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
	}
}

// Backoff returns the sleep before the given retry (attempt is 1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	d := p.BaseDelay * time.Duration(attempt)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

var (
	errRateLimited = errors.New("rate limited")
	errServerError = errors.New("server error")
	errAuthDenied  = errors.New("credential rejected")
	errCircuitOpen = errors.New("circuit breaker open")
)

// ResilientClient executes a single logical fetch against one upstream
// with bounded retries and a circuit breaker. Errors are classified as
// terminal (returned immediately) or retryable (retried until the policy
// is exhausted, then wrapped in TransientProviderError).
type ResilientClient struct {
	name    string
	client  *http.Client
	policy  RetryPolicy
	circuit *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewResilientClient wraps client with the retry policy and a circuit
// breaker named after the upstream.
func NewResilientClient(name string, client *http.Client, policy RetryPolicy, logger *zap.Logger) *ResilientClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &ResilientClient{
		name:    name,
		client:  client,
		policy:  policy,
		circuit: cb,
		logger:  logger,
	}
}

// Do runs buildRequest and executes it, retrying retryable failures.
// buildRequest is invoked once per attempt so request bodies can be
// rebuilt. The caller owns the response body on success.
func (c *ResilientClient) Do(ctx context.Context, buildRequest func() (*http.Request, error)) (*http.Response, error) {
	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := buildRequest()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", earthdata.ErrTerminalRequest, err)
		}
		req = req.WithContext(ctx)

		result, err := c.circuit.Execute(func() (interface{}, error) {
			resp, execErr := c.client.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				drain(resp)
				return nil, errRateLimited
			case resp.StatusCode == http.StatusRequestTimeout:
				drain(resp)
				return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
			case resp.StatusCode >= 500:
				drain(resp)
				return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
			case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
				drain(resp)
				return nil, fmt.Errorf("%w: %d", errAuthDenied, resp.StatusCode)
			case resp.StatusCode < 200 || resp.StatusCode >= 300:
				drain(resp)
				return nil, fmt.Errorf("%w: status %d", earthdata.ErrTerminalRequest, resp.StatusCode)
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

		// Terminal classes propagate without retry.
		if errors.Is(err, earthdata.ErrTerminalRequest) {
			c.logger.Warn("upstream request rejected",
				zap.String("provider", c.name),
				zap.Int("attempt", attempt+1),
				zap.String("class", "terminal"),
				zap.Error(err))
			return nil, err
		}
		if errors.Is(err, errAuthDenied) {
			c.logger.Warn("upstream credential rejected",
				zap.String("provider", c.name),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			return nil, &earthdata.AuthenticationError{Err: err}
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Warn("circuit open, failing fast",
				zap.String("provider", c.name),
				zap.Error(err))
			return nil, &earthdata.TransientProviderError{
				Provider: c.name,
				Attempts: attempt + 1,
				Err:      fmt.Errorf("%w: %v", errCircuitOpen, err),
			}
		}

		lastErr = err
		attempt++
		c.logger.Warn("upstream attempt failed",
			zap.String("provider", c.name),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", c.policy.MaxAttempts),
			zap.String("class", "retryable"),
			zap.Error(err))

		if attempt >= c.policy.MaxAttempts {
			return nil, &earthdata.TransientProviderError{
				Provider: c.name,
				Attempts: attempt,
				Err:      lastErr,
			}
		}

		timer := time.NewTimer(c.policy.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// Name identifies the upstream this client talks to.
func (c *ResilientClient) Name() string { return c.name }

func drain(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
