package httpclient

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Options configures a RestyClient. Zero values disable the feature.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// Retries is how many extra attempts are made after a transport error,
	// a 429 or a 5xx response.
	Retries   int
	RetryWait time.Duration
}

// RestyClient is the resty-backed Client shared by provider adapters and
// the enrichment engine.
type RestyClient struct {
	client *resty.Client
}

// New builds a RestyClient from opts.
func New(opts Options) *RestyClient {
	c := newRestyBaseClient(opts.Timeout)
	if ua := strings.TrimSpace(opts.UserAgent); ua != "" {
		c.SetHeader("User-Agent", ua)
	}
	if opts.Retries > 0 {
		c.SetRetryCount(opts.Retries)
		if opts.RetryWait > 0 {
			c.SetRetryWaitTime(opts.RetryWait)
			c.SetRetryMaxWaitTime(4 * opts.RetryWait)
		}
		c.AddRetryCondition(retryable)
	}
	return &RestyClient{client: c}
}

// NewRestyClient is New with only a timeout and default User-Agent.
func NewRestyClient(timeout time.Duration, userAgent string) *RestyClient {
	return New(Options{Timeout: timeout, UserAgent: userAgent})
}

// NewRestyHTTPClient returns a bare resty.Client for callers that need other
// verbs than GET (webhook publishers).
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return c
}

func retryable(resp *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// Get performs a GET against url with the extra headers.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}
	return restyResponse{resp: resp}, nil
}

type restyResponse struct {
	resp *resty.Response
}

func (r restyResponse) Body() []byte    { return r.resp.Body() }
func (r restyResponse) StatusCode() int { return r.resp.StatusCode() }
