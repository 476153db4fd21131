package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Adda-Baaj/khobor-aggregator/internal/logger"
	"github.com/Adda-Baaj/khobor-aggregator/pkg/httpclient"
	"github.com/go-resty/resty/v2"
)

const webhookSnippetLimit = 512

// httpPublisher sends each event as a JSON body to a webhook. Event
// metadata is repeated in X-Event-* headers so receivers can route without
// decoding the body.
type httpPublisher struct {
	id     string
	method string
	url    string
	client *resty.Client
	log    logger.Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	hc := *cfg.HTTP
	hc.normalize()

	client := httpclient.NewRestyHTTPClient(time.Duration(hc.TimeoutSeconds) * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeaders(hc.Headers)

	return &httpPublisher{
		id:     cfg.ID,
		method: hc.Method,
		url:    hc.URL,
		client: client,
		log:    logger.Ensure(log),
	}, nil
}

func (h *httpPublisher) ID() string   { return h.id }
func (h *httpPublisher) Type() string { return TypeHTTP }

func (h *httpPublisher) Publish(ctx context.Context, evt Event) error {
	req := h.client.R().SetContext(ctx).SetBody(evt)
	for k, v := range evt.attributes() {
		req.SetHeader(webhookHeader(k), v)
	}

	resp, err := req.Execute(h.method, h.url)
	if err != nil {
		return fmt.Errorf("%s %s: %w", h.method, h.url, err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook responded %d: %s", resp.StatusCode(), bodySnippet(resp.Body()))
	}

	h.log.DebugObj("http publisher delivered event", "publisher_http_delivery", map[string]any{
		"publisher_id": h.id,
		"event_id":     evt.ID,
		"status":       resp.StatusCode(),
	})
	return nil
}

// webhookHeader turns an attribute name like event_id into X-Event-ID.
func webhookHeader(attr string) string {
	switch attr {
	case "event_id":
		return "X-Event-ID"
	case "provider_id":
		return "X-Event-Provider"
	case "source":
		return "X-Event-Source"
	}
	return "X-Event-" + strings.ReplaceAll(attr, "_", "-")
}

// bodySnippet trims a response body for error messages without splitting a
// UTF-8 sequence.
func bodySnippet(body []byte) string {
	if len(body) > webhookSnippetLimit {
		body = body[:webhookSnippetLimit]
		for len(body) > 0 && !utf8.Valid(body) {
			body = body[:len(body)-1]
		}
	}
	return strings.TrimSpace(string(body))
}
