package dispatch

import (
	"context"
	"crossline/internal/command"
	"crossline/internal/config"
	"crossline/internal/dto"
	"crossline/internal/logger"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ValvePath is the actuator endpoint that opens a valve.
const ValvePath = "/control-valve/"

// Sender delivers one command to the actuator. Implementations never return
// errors; every failure is folded into the result.
type Sender interface {
	Send(ctx context.Context, code command.Code) dto.DispatchResult
}

// Client calls the actuator over HTTP. Only a 200 counts as success.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a Client whose requests are bounded by the configured timeout.
func NewClient(config *config.Config, logger *logger.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(config.ActuatorURL, "/"),
		httpClient: &http.Client{Timeout: config.DispatchTimeout},
		logger:     logger,
	}
}

// URL returns the request URL for a command.
func (c *Client) URL(code command.Code) string {
	q := url.Values{}
	q.Set("valve_id", code.String())
	return c.baseURL + ValvePath + "?" + q.Encode()
}

// Send performs GET /control-valve/?valve_id=<code>.
func (c *Client) Send(ctx context.Context, code command.Code) dto.DispatchResult {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(code), nil)
	if err != nil {
		c.logger.Error("Failed to build request for valve %s: %v", code, err)
		return dto.DispatchResult{Detail: fmt.Sprintf("failed to build request: %v", err), Duration: time.Since(start)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Request for valve %s failed: %v", code, err)
		return dto.DispatchResult{Detail: fmt.Sprintf("request failed: %v", err), Duration: time.Since(start)}
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	result := dto.DispatchResult{
		StatusCode: resp.StatusCode,
		Duration:   time.Since(start),
	}
	if resp.StatusCode != http.StatusOK {
		result.Detail = fmt.Sprintf("actuator returned %s", resp.Status)
		c.logger.Warning("Failed to control valve %s: %s", code, resp.Status)
		return result
	}

	result.Success = true
	result.Detail = "valve should open now"
	return result
}

// DryRun logs commands instead of sending them and always succeeds.
type DryRun struct {
	logger *logger.Logger
}

func NewDryRun(logger *logger.Logger) *DryRun {
	return &DryRun{logger: logger}
}

func (d *DryRun) Send(ctx context.Context, code command.Code) dto.DispatchResult {
	d.logger.Info("[dry-run] would open valve %s", code)
	return dto.DispatchResult{Success: true, StatusCode: http.StatusOK, Detail: "dry run"}
}
