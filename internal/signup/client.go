package signup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mr1hm/go-disaster-feed/internal/models"
)

// Client posts sign-up records to the user-creation endpoint.
type Client struct {
	url        string
	httpClient *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Register treats any 2xx as success. Everything else is an error; callers
// do not distinguish between failure kinds.
func (c *Client) Register(ctx context.Context, rec models.SignUpRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("error encoding record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}
	return nil
}
