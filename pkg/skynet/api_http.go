package skynet

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const defaultUserAgent = "skynet-go/1.0"

// RestyTransport is the production Transport backed by a resty client.
type RestyTransport struct {
	client *resty.Client
}

// RestyTransportConfig holds configuration for the resty transport.
type RestyTransportConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// NewRestyTransport creates a transport pointed at cfg.BaseURL, or the Skynet API when empty.
func NewRestyTransport(cfg RestyTransportConfig) *RestyTransport {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent)

	return &RestyTransport{client: c}
}

// NewRestyTransportWithClient wraps a caller-configured resty client.
// The client must already carry the base URL.
func NewRestyTransportWithClient(c *resty.Client) *RestyTransport {
	return &RestyTransport{client: c}
}

// Post sends body as a JSON request.
func (t *RestyTransport) Post(ctx context.Context, path string, body any) (RawResponse, error) {
	resp, err := t.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(path)
	if err != nil {
		return nil, &TransportError{Method: http.MethodPost, Path: path, Cause: err}
	}
	return resp, nil
}

// Get sends query as URL parameters.
func (t *RestyTransport) Get(ctx context.Context, path string, query map[string]string) (RawResponse, error) {
	req := t.request(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	resp, err := req.Get(path)
	if err != nil {
		return nil, &TransportError{Method: http.MethodGet, Path: path, Cause: err}
	}
	return resp, nil
}

func (t *RestyTransport) request(ctx context.Context) *resty.Request {
	return t.client.R().
		SetContext(ctx).
		SetHeader("X-Request-ID", uuid.NewString())
}

// Ensure RestyTransport implements Transport interface
var _ Transport = (*RestyTransport)(nil)
