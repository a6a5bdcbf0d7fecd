// Package assethost uploads images to the hosted asset service using an
// unsigned upload preset.
package assethost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/mr1hm/go-disaster-feed/internal/observability"
)

// ErrNotConfigured is returned when no cloud name or preset was provided.
var ErrNotConfigured = errors.New("asset host is not configured")

// Client implements signup.ImageUploader against the hosted image API.
type Client struct {
	baseURL      string
	cloudName    string
	uploadPreset string
	httpClient   *http.Client
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// NewClient creates an asset host client. cloudName and uploadPreset come
// from configuration.
func NewClient(baseURL, cloudName, uploadPreset string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:      baseURL,
		cloudName:    cloudName,
		uploadPreset: uploadPreset,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Upload sends the image and returns its hosted https URL.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if c.cloudName == "" || c.uploadPreset == "" {
		return "", ErrNotConfigured
	}

	start := time.Now()
	secureURL, err := c.upload(ctx, filename, r)
	if c.metrics != nil {
		c.metrics.UploadDuration.Observe(time.Since(start).Seconds())
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.metrics.ImageUploads.WithLabelValues(outcome).Inc()
	}
	if err != nil {
		c.logger.Warn("image upload failed", "filename", filename, "error", err)
		return "", err
	}

	c.logger.Debug("image uploaded", "filename", filename, "url", secureURL)
	return secureURL, nil
}

func (c *Client) upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("copy image: %w", err)
	}
	if err := mw.WriteField("upload_preset", c.uploadPreset); err != nil {
		return "", fmt.Errorf("write preset: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	u := fmt.Sprintf("%s/%s/image/upload", c.baseURL, url.PathEscape(c.cloudName))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	var uploadResp response
	decodeErr := json.NewDecoder(resp.Body).Decode(&uploadResp)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && uploadResp.Error != nil {
			return "", fmt.Errorf("asset host error: status %d: %s", resp.StatusCode, uploadResp.Error.Message)
		}
		return "", fmt.Errorf("asset host error: status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode response: %w", decodeErr)
	}
	if uploadResp.SecureURL == "" {
		return "", errors.New("asset host response has no secure_url")
	}

	return uploadResp.SecureURL, nil
}

// Upload API response.

type response struct {
	SecureURL string    `json:"secure_url"`
	PublicID  string    `json:"public_id"`
	Error     *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
}
