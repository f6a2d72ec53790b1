package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Sink receives dashboard updates from a running simulation. Implementations
// are best effort: failures are logged and never returned.
type Sink interface {
	PublishPortfolio(ctx context.Context, p Portfolio)
	PublishTrade(ctx context.Context, t Trade)
	PublishPortfolioValue(ctx context.Context, p PortfolioPoint)
	PublishDecision(ctx context.Context, d Decision)
	PublishMarkets(ctx context.Context, markets []Market)
}

// NopSink discards every update
type NopSink struct{}

func (NopSink) PublishPortfolio(context.Context, Portfolio)           {}
func (NopSink) PublishTrade(context.Context, Trade)                   {}
func (NopSink) PublishPortfolioValue(context.Context, PortfolioPoint) {}
func (NopSink) PublishDecision(context.Context, Decision)             {}
func (NopSink) PublishMarkets(context.Context, []Market)              {}

// DefaultPublishTimeout bounds each POST to the dashboard
const DefaultPublishTimeout = 2 * time.Second

// HTTPPublisher posts updates to a dashboard server's /api/update endpoint
type HTTPPublisher struct {
	url    string
	client *http.Client
	log    zerolog.Logger
}

// NewHTTPPublisher creates a publisher for the dashboard at baseURL
func NewHTTPPublisher(baseURL string, timeout time.Duration, log zerolog.Logger) *HTTPPublisher {
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	return &HTTPPublisher{
		url:    strings.TrimRight(baseURL, "/") + "/api/update",
		client: &http.Client{Timeout: timeout},
		log:    log.With().Str("component", "dashboard_publisher").Logger(),
	}
}

func (p *HTTPPublisher) PublishPortfolio(ctx context.Context, portfolio Portfolio) {
	p.send(ctx, Update{Portfolio: &portfolio})
}

func (p *HTTPPublisher) PublishTrade(ctx context.Context, t Trade) {
	p.send(ctx, Update{Trade: &t})
}

func (p *HTTPPublisher) PublishPortfolioValue(ctx context.Context, pt PortfolioPoint) {
	p.send(ctx, Update{PortfolioValue: &pt})
}

func (p *HTTPPublisher) PublishDecision(ctx context.Context, d Decision) {
	p.send(ctx, Update{Decision: &d})
}

func (p *HTTPPublisher) PublishMarkets(ctx context.Context, markets []Market) {
	if markets == nil {
		markets = []Market{}
	}
	p.send(ctx, Update{Markets: markets})
}

func (p *HTTPPublisher) send(ctx context.Context, u Update) {
	if err := p.post(ctx, u); err != nil {
		p.log.Warn().Err(err).Msg("Dashboard update failed")
	}
}

func (p *HTTPPublisher) post(ctx context.Context, u Update) error {
	body, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post update: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("dashboard returned status %d", resp.StatusCode)
	}
	return nil
}

// ServiceSink applies updates directly to an in-process Service
type ServiceSink struct {
	service *Service
	log     zerolog.Logger
}

// NewServiceSink creates a sink backed by service
func NewServiceSink(service *Service, log zerolog.Logger) *ServiceSink {
	return &ServiceSink{service: service, log: log.With().Str("component", "dashboard_sink").Logger()}
}

func (s *ServiceSink) apply(ctx context.Context, u Update) {
	if err := s.service.Apply(ctx, u); err != nil {
		s.log.Warn().Err(err).Msg("Dashboard update failed")
	}
}

func (s *ServiceSink) PublishPortfolio(ctx context.Context, p Portfolio) {
	s.apply(ctx, Update{Portfolio: &p})
}

func (s *ServiceSink) PublishTrade(ctx context.Context, t Trade) {
	s.apply(ctx, Update{Trade: &t})
}

func (s *ServiceSink) PublishPortfolioValue(ctx context.Context, pt PortfolioPoint) {
	s.apply(ctx, Update{PortfolioValue: &pt})
}

func (s *ServiceSink) PublishDecision(ctx context.Context, d Decision) {
	s.apply(ctx, Update{Decision: &d})
}

func (s *ServiceSink) PublishMarkets(ctx context.Context, markets []Market) {
	if markets == nil {
		markets = []Market{}
	}
	s.apply(ctx, Update{Markets: markets})
}
