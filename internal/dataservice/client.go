package dataservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrNetwork marks transport failures, timeouts and server errors that
	// persisted after the retry.
	ErrNetwork = errors.New("data service unreachable")
	// ErrNotFound marks a 404 from the data service.
	ErrNotFound = errors.New("resource not found")
	// ErrMissingMetadata marks a successful response that lacks the field asked for.
	ErrMissingMetadata = errors.New("metadata missing")
)

// Config holds data service client configuration.
type Config struct {
	Endpoint   string // base URL of the data service (e.g., http://localhost:15000)
	Token      string
	Timeout    time.Duration
	RetryDelay time.Duration
}

// LogValue masks the token when the config is logged via slog.
func (c Config) LogValue() slog.Value {
	token := ""
	if c.Token != "" {
		token = "[REDACTED]"
	}
	return slog.GroupValue(
		slog.String("endpoint", c.Endpoint),
		slog.Duration("timeout", c.Timeout),
		slog.String("token", token),
	)
}

// Client talks to the service that owns topics, item metadata and images.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a data service client with the given configuration.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Second
	}
	cfg.Endpoint = strings.TrimRight(cfg.Endpoint, "/")
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With("component", "dataservice-client"),
	}
}

// Image is a binary image payload plus the metadata headers that came with it.
type Image struct {
	Data        []byte
	ContentType string
	Category    string
}

type categoriesRequest struct {
	Categories []string `json:"categories"`
}

type topicsResponse struct {
	Categories []string `json:"categories"`
}

// Topics lists every topic the data service knows about.
func (c *Client) Topics(ctx context.Context) ([]string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/data", nil, nil)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	var parsed topicsResponse
	if err := json.Unmarshal(resp.body, &parsed); err != nil {
		return nil, fmt.Errorf("list topics: unmarshal response: %w", err)
	}
	return parsed.Categories, nil
}

// ItemIDs returns the ordered item identifiers belonging to topic.
// Identifiers are returned exactly as the service sends them.
func (c *Client) ItemIDs(ctx context.Context, topic string) ([]string, error) {
	resp, err := c.do(ctx, http.MethodPost, "/data/categories", nil, categoriesRequest{Categories: []string{topic}})
	if err != nil {
		return nil, fmt.Errorf("item ids for %q: %w", topic, err)
	}
	var ids []string
	if err := json.Unmarshal(resp.body, &ids); err != nil {
		return nil, fmt.Errorf("item ids for %q: unmarshal response: %w", topic, err)
	}
	return ids, nil
}

// Title returns the raw "<author>: <title>" string for an item.
func (c *Client) Title(ctx context.Context, id string) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/get-title", url.Values{"filename": {id}}, nil)
	if err != nil {
		return "", fmt.Errorf("title for %q: %w", id, err)
	}
	title := strings.TrimSpace(string(resp.body))
	if title == "" {
		return "", fmt.Errorf("title for %q: %w", id, ErrMissingMetadata)
	}
	return title, nil
}

// Category fetches an item's image and returns only its Category header.
func (c *Client) Category(ctx context.Context, id string) (string, error) {
	img, err := c.Image(ctx, id)
	if err != nil {
		return "", err
	}
	if img.Category == "" {
		return "", fmt.Errorf("category for %q: %w", id, ErrMissingMetadata)
	}
	return img.Category, nil
}

// Image fetches the image payload for an item.
func (c *Client) Image(ctx context.Context, id string) (Image, error) {
	resp, err := c.do(ctx, http.MethodGet, "/images/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return Image{}, fmt.Errorf("image for %q: %w", id, err)
	}
	return Image{
		Data:        resp.body,
		ContentType: resp.header.Get("Content-Type"),
		Category:    strings.TrimSpace(resp.header.Get("Category")),
	}, nil
}

// CentralImage fetches the image representing topic itself.
func (c *Client) CentralImage(ctx context.Context, topic string) (Image, error) {
	resp, err := c.do(ctx, http.MethodPost, "/data/central-image", nil, categoriesRequest{Categories: []string{topic}})
	if err != nil {
		return Image{}, fmt.Errorf("central image for %q: %w", topic, err)
	}
	return Image{
		Data:        resp.body,
		ContentType: resp.header.Get("Content-Type"),
	}, nil
}

type response struct {
	body   []byte
	header http.Header
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) (*response, error) {
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
	}

	endpoint := c.cfg.Endpoint + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	// Try up to 2 times (initial + 1 retry on 5xx or 429)
	const attempts = 2
	var lastErr error
	for attempt := range attempts {
		if attempt > 0 {
			c.logger.Debug("retrying data service request", "path", path, "attempt", attempt+1)
		}

		resp, err := c.doRequest(ctx, method, endpoint, data)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}
		if attempt == attempts-1 {
			break
		}

		select {
		case <-time.After(c.retryDelay(err)):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrNetwork, ctx.Err())
		}
	}

	return nil, fmt.Errorf("request failed after retries: %w", lastErr)
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, data []byte) (*response, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}

	c.logger.Debug("sending data service request", "method", method, "endpoint", endpoint)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: http request: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()

	const maxBodyBytes = 10 * 1024 * 1024 // 10 MB
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrNetwork, err)
	}

	// Handle rate limiting
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, &serverError{statusCode: resp.StatusCode, retryAfter: retryAfter}
	}

	// Handle server errors (retryable)
	if resp.StatusCode >= 500 {
		return nil, &serverError{statusCode: resp.StatusCode}
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, endpoint)
	}

	// Handle client errors (non-retryable)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("data service error (status %d): %s", resp.StatusCode, string(raw))
	}

	c.logger.Debug("received data service response", "endpoint", endpoint, "length", len(raw))
	return &response{body: raw, header: resp.Header}, nil
}

// maxRetryDelay bounds a server-supplied Retry-After.
const maxRetryDelay = 10 * time.Second

// retryDelay is the wait before retrying after err: the server's
// Retry-After when given, else RetryDelay, never longer than the request
// timeout or maxRetryDelay.
func (c *Client) retryDelay(err error) time.Duration {
	delay := c.cfg.RetryDelay
	var se *serverError
	if errors.As(err, &se) && se.retryAfter > 0 {
		delay = se.retryAfter
	}
	return min(delay, c.cfg.Timeout, maxRetryDelay)
}

type serverError struct {
	statusCode int
	retryAfter time.Duration
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server error: status %d", e.statusCode)
}

// Is lets errors.Is(err, ErrNetwork) match exhausted server errors.
func (e *serverError) Is(target error) bool {
	return target == ErrNetwork
}

func isRetryable(err error) bool {
	var se *serverError
	return errors.As(err, &se)
}

func parseRetryAfter(val string) time.Duration {
	if val == "" {
		return 0
	}
	// Try parsing as seconds
	if seconds, err := strconv.Atoi(val); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return 0
}
