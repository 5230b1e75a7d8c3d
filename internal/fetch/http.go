package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/cecompare/cecompare/internal/contract"
	"github.com/cecompare/cecompare/schema"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// apiKeyHeader carries the engine token on every request.
const apiKeyHeader = "x-api-key"

// excerptBytes is how much of an error body ends up in logs and errors.
const excerptBytes = 512

// HTTPOptions configures the HTTP source.
type HTTPOptions struct {
	Timeout     time.Duration
	MaxRetries  int
	RateLimit   float64 // requests per second across both engines
	Insecure    bool
	BackoffBase time.Duration
	UserAgent   string
}

// HTTPOptionsFromConfig builds HTTP options from the validated config.
func HTTPOptionsFromConfig(cfg *contract.Config) HTTPOptions {
	return HTTPOptions{
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.MaxRetries,
		RateLimit:  cfg.RateLimit,
		Insecure:   cfg.Insecure,
	}
}

// HTTPSource fetches a tenant's datasets from both engines' APIs.
type HTTPSource struct {
	tenant  contract.TenantConfig
	clients map[schema.Side]*http.Client
	limiter *rate.Limiter
	opts    HTTPOptions
}

// apiKeyRoundTripper injects the engine token and JSON accept header into every request.
type apiKeyRoundTripper struct {
	base  http.RoundTripper
	token string
	agent string
}

func (t *apiKeyRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", t.agent)
	if t.token != "" {
		req.Header.Set(apiKeyHeader, t.token)
	}
	return t.base.RoundTrip(req)
}

// NewHTTPSource creates an HTTPSource for the tenant with one client per engine.
func NewHTTPSource(tenant contract.TenantConfig, opts HTTPOptions) *HTTPSource {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = contract.DefaultRateLimit
	}
	if opts.BackoffBase == 0 {
		opts.BackoffBase = time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "cecompare/1.0"
	}

	clients := make(map[schema.Side]*http.Client, len(schema.AllSides))
	for _, side := range schema.AllSides {
		transport := &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			TLSClientConfig:     &tls.Config{InsecureSkipVerify: opts.Insecure}, //nolint:gosec // user-configured
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		}
		clients[side] = &http.Client{
			Timeout: opts.Timeout,
			Transport: &apiKeyRoundTripper{
				base:  transport,
				token: tenant.Engine(side).Token,
				agent: opts.UserAgent,
			},
		}
	}

	return &HTTPSource{
		tenant:  tenant,
		clients: clients,
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		opts:    opts,
	}
}

// Fetch downloads and decodes the dataset of one engine for a date.
func (s *HTTPSource) Fetch(ctx context.Context, side schema.Side, date string) (schema.Dataset, error) {
	rawURL := contract.ExpandURL(s.tenant.Engine(side).URL, date)
	if rawURL == "" {
		return schema.Dataset{}, fmt.Errorf("%w: no %s url configured for tenant %s", ErrNoResults, side, s.tenant.Name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := s.doWithRetry(ctx, side, req)
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("%w: %s request failed: %v", ErrNoResults, side, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return schema.Dataset{}, fmt.Errorf("read %s response: %w", side, err)
	}

	if resp.StatusCode != http.StatusOK {
		excerpt := bodyExcerpt(body)
		zap.L().Error("engine returned an error",
			zap.String("side", string(side)),
			zap.String("url", redactURL(rawURL)),
			zap.Int("status", resp.StatusCode),
			zap.String("body", excerpt))
		return schema.Dataset{}, fmt.Errorf("%w: %s returned status %d: %s", ErrNoResults, side, resp.StatusCode, excerpt)
	}

	return decodeDataset(side, body)
}

// doWithRetry sends req, retrying transport errors, 429 and 5xx with exponential backoff.
func (s *HTTPSource) doWithRetry(ctx context.Context, side schema.Side, req *http.Request) (*http.Response, error) {
	client := s.clients[side]

	var lastErr error
	for attempt := range s.opts.MaxRetries + 1 {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait: %w", err)
		}

		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			zap.L().Warn("http request failed, retrying",
				zap.String("side", string(side)),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			if !s.backoff(ctx, attempt) {
				break
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("http %d from %s engine", resp.StatusCode, side)
			zap.L().Warn("engine unavailable, retrying",
				zap.String("side", string(side)),
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1))
			if !s.backoff(ctx, attempt) {
				break
			}
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("all retries exhausted: %w", lastErr)
}

// backoff sleeps before the next attempt; it returns false when ctx is done.
func (s *HTTPSource) backoff(ctx context.Context, attempt int) bool {
	if attempt >= s.opts.MaxRetries {
		return false
	}
	maxBackoff := 30 * time.Second
	d := time.Duration(float64(s.opts.BackoffBase) * math.Pow(2, float64(attempt)))
	if d > maxBackoff {
		d = maxBackoff
	}
	if half := int64(d) / 2; half > 0 {
		d += time.Duration(rand.Int64N(half))
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func bodyExcerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > excerptBytes {
		s = s[:excerptBytes] + "..."
	}
	return s
}

// redactURL drops the query string, which may carry credentials.
func redactURL(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
