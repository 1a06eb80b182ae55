// internal/infra/practicum/client.go
package practicum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"homework_status_bot/internal/domain/homework"

	"github.com/sirupsen/logrus"
)

// Client queries the homework statuses API.
type Client struct {
	endpoint   string
	token      string
	timeout    time.Duration
	httpClient *http.Client
	logger     *logrus.Entry
}

func NewClient(endpoint, token string, timeout time.Duration, logger *logrus.Entry) *Client {
	return &Client{
		endpoint:   endpoint,
		token:      token,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Fetch returns the raw body of the statuses updated since fromDate.
// Network failures, timeouts, non-200 answers and 200 answers carrying an
// "error" or "code" key are all returned as transport errors.
func (c *Client) Fetch(ctx context.Context, fromDate int64) ([]byte, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, homework.NewTransportError(fmt.Sprintf("invalid endpoint %q", c.endpoint), err)
	}
	q := u.Query()
	q.Set("from_date", strconv.FormatInt(fromDate, 10))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, homework.NewTransportError("failed to build request", err)
	}
	req.Header.Set("Authorization", "OAuth "+c.token)

	logCtx := c.logger.WithField("from_date", fromDate)
	logCtx.Debug("Requesting homework statuses")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, homework.NewTransportError(fmt.Sprintf("request to %s timeout after %s", c.endpoint, c.timeout), err)
		}
		return nil, homework.NewTransportError(fmt.Sprintf("request to %s failed", c.endpoint), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, homework.NewTransportError(fmt.Sprintf("reading response from %s timeout after %s", c.endpoint, c.timeout), err)
		}
		return nil, homework.NewTransportError(fmt.Sprintf("failed to read response from %s", c.endpoint), err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, homework.NewTransportError(fmt.Sprintf("unexpected status %d from %s", resp.StatusCode, c.endpoint), nil)
	}

	var apiErr map[string]json.RawMessage
	if json.Unmarshal(body, &apiErr) == nil {
		errVal, hasErr := apiErr["error"]
		codeVal, hasCode := apiErr["code"]
		if hasErr || hasCode {
			return nil, homework.NewTransportError(
				fmt.Sprintf("api error from %s: error=%s code=%s", c.endpoint, rawOrNone(errVal), rawOrNone(codeVal)), nil)
		}
	}

	logCtx.WithField("bytes", len(body)).Debug("Received answer from homework statuses API")
	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func rawOrNone(raw json.RawMessage) string {
	if raw == nil {
		return "none"
	}
	return string(raw)
}
