package companion

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/deviceos/pkgmap/internal/infrastructure/logging"
	"github.com/deviceos/pkgmap/internal/infrastructure/resilience"
)

// Client asks the companion service to push a fresh full uid map snapshot.
// The request is fire-and-forget from the tracker's point of view; retries
// and the circuit breaker live here, never in the tracker.
type Client struct {
	http    *resty.Client
	breaker *resilience.Breaker
	base    string
	logger  *logging.Logger
}

// New creates a companion client for the given base URL.
func New(baseURL string, logger *logging.Logger) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 2
	retryClient.RetryWaitMin = 250 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = nil

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(250 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("User-Agent", "pkgmap/1.0")
	httpClient.SetTransport(retryClient.HTTPClient.Transport)

	breaker := resilience.New("companion", resilience.Settings{
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.Warn("companion breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		http:    httpClient,
		breaker: breaker,
		base:    baseURL,
		logger:  logger,
	}
}

// TriggerSnapshot requests an asynchronous full snapshot push. A non-2xx
// response counts as unavailability; the caller treats it as non-fatal.
func (c *Client) TriggerSnapshot() error {
	return c.breaker.Execute(func() error {
		resp, err := c.http.R().Post("/v1/trigger-snapshot")
		if err != nil {
			return fmt.Errorf("companion unreachable: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("companion rejected snapshot trigger: %s", resp.Status())
		}
		c.logger.Debug("snapshot trigger accepted", zap.String("companion", c.base))
		return nil
	})
}
