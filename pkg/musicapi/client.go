package musicapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config holds client configuration.
type Config struct {
	BaseURL    string       // Required: server base URL, e.g. http://pi-server:8080
	HTTPClient *http.Client // Optional: HTTP client (defaults to one with Timeout)
	Timeout    time.Duration
	MaxRetries int    // Optional: attempts for retryable calls (defaults to 3)
	UserAgent  string // Optional: User-Agent header
	Logger     Logger // Optional: Logger interface for debug logging
}

// Logger is an optional interface for logging.
type Logger interface {
	// Debugf logs a debug message with format and arguments.
	Debugf(format string, args ...interface{})
}

// Client is the main entry point for music server API operations.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	userAgent  string
	logger     Logger
}

const (
	// DefaultTimeout bounds every request made with the default HTTP client.
	DefaultTimeout = 30 * time.Second

	defaultUserAgent  = "seamless/1.0"
	defaultMaxRetries = 3
)

// NewClient creates a new music server API client.
//
// Returns an error if BaseURL is missing or not an absolute http(s) URL.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: BaseURL is required", ErrInvalidConfig)
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid BaseURL %q", ErrInvalidConfig, cfg.BaseURL)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpClient,
		maxRetries: maxRetries,
		userAgent:  userAgent,
		logger:     cfg.Logger,
	}, nil
}

// BaseURL returns the server base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// logDebugf logs a debug message if a logger is configured.
func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}
