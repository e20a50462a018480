// Package simbad is a client for the SIMBAD astronomical database's TAP
// service, used to resolve known objects near a sky position.
package simbad

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/vast-survey/triage/internal/conf"
	"github.com/vast-survey/triage/internal/errors"
	"github.com/vast-survey/triage/internal/logging"
	"github.com/vast-survey/triage/internal/skygeo"
)

// MaxRadiusArcmin is the hard ceiling on cone-search radius sent to SIMBAD.
// Larger requests are clamped, never forwarded: the remote service is shared
// infrastructure and wide cones get slow and expensive.
const MaxRadiusArcmin = 60.0

// Package-level logger specific to the simbad service
var (
	logger          *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "simbad.log")
	serviceLevelVar.Set(slog.LevelDebug)

	logger, closeLogger, err = logging.NewFileLogger(logFilePath, "simbad", serviceLevelVar)
	if err != nil {
		log.Printf("Failed to initialize simbad file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		logger = slog.New(fbHandler).With("service", "simbad")
		closeLogger = func() error { return nil }
	}
}

// Config holds SIMBAD client configuration.
type Config struct {
	BaseURL     string // TAP service root, e.g. https://simbad.cds.unistra.fr/simbad/sim-tap
	Timeout     time.Duration
	CacheTTL    time.Duration
	RateLimitMS int
}

// DefaultConfig returns the client defaults used when settings are silent.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://simbad.cds.unistra.fr/simbad/sim-tap",
		Timeout:     30 * time.Second,
		CacheTTL:    1 * time.Hour,
		RateLimitMS: 250,
	}
}

// ConfigFromSettings maps application settings to a client Config.
func ConfigFromSettings(settings *conf.Settings) Config {
	cfg := DefaultConfig()
	if settings.Simbad.BaseURL != "" {
		cfg.BaseURL = settings.Simbad.BaseURL
	}
	if settings.Simbad.Timeout > 0 {
		cfg.Timeout = settings.Simbad.Timeout
	}
	if settings.Simbad.CacheTTL > 0 {
		cfg.CacheTTL = settings.Simbad.CacheTTL
	}
	if settings.Simbad.RateLimitMS > 0 {
		cfg.RateLimitMS = settings.Simbad.RateLimitMS
	}
	return cfg
}

// Source is one resolved SIMBAD object.
type Source struct {
	Name string
	RA   float64 // degrees
	Dec  float64 // degrees
}

// Client queries the SIMBAD TAP service with caching, rate limiting and
// retry for transient failures.
type Client struct {
	config      Config
	httpClient  *http.Client
	cache       *cache.Cache
	rateLimiter *rate.Limiter
}

// NewClient creates a SIMBAD TAP client.
func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.Newf("simbad base URL is required").
			Category(errors.CategoryConfiguration).
			Component("simbad").
			Build()
	}
	defaults := DefaultConfig()
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = defaults.CacheTTL
	}
	if config.RateLimitMS == 0 {
		config.RateLimitMS = defaults.RateLimitMS
	}

	client := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		cache:       cache.New(config.CacheTTL, config.CacheTTL*2),
		rateLimiter: rate.NewLimiter(rate.Every(time.Duration(config.RateLimitMS)*time.Millisecond), 1),
	}

	logger.Info("SIMBAD client initialized",
		"base_url", config.BaseURL,
		"cache_ttl", config.CacheTTL,
		"rate_limit_ms", config.RateLimitMS)

	return client, nil
}

// Close releases client resources.
func (c *Client) Close() {
	logger.Info("Closing SIMBAD client")
	if closeLogger != nil {
		if err := closeLogger(); err != nil {
			log.Printf("Error closing simbad logger: %v", err)
		}
	}
}

// HTTPClient exposes the underlying HTTP client for test instrumentation.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// ConeSearch returns SIMBAD objects within radiusArcmin of center. The
// radius is clamped to MaxRadiusArcmin. No match is an empty result, not an
// error; a failing or unreachable service returns a catalog-unavailable
// error that callers treat as "zero results from this source".
func (c *Client) ConeSearch(ctx context.Context, center skygeo.Position, radiusArcmin float64) ([]Source, error) {
	if radiusArcmin <= 0 {
		return nil, nil
	}
	if radiusArcmin > MaxRadiusArcmin {
		logger.Debug("clamping cone-search radius",
			"requested_arcmin", radiusArcmin,
			"max_arcmin", MaxRadiusArcmin)
		radiusArcmin = MaxRadiusArcmin
	}

	cacheKey := fmt.Sprintf("cone:%.6f:%.6f:%.3f", center.RA, center.Dec, radiusArcmin)
	if cached, found := c.cache.Get(cacheKey); found {
		if sources, ok := cached.([]Source); ok {
			logger.Debug("SIMBAD cone-search cache hit", "cache_key", cacheKey, "sources", len(sources))
			return sources, nil
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	adql := fmt.Sprintf(
		"SELECT main_id, ra, dec FROM basic WHERE CONTAINS(POINT('ICRS', ra, dec), CIRCLE('ICRS', %f, %f, %f)) = 1 AND ra IS NOT NULL AND dec IS NOT NULL",
		center.RA, center.Dec, radiusArcmin/60)

	query := url.Values{}
	query.Set("request", "doQuery")
	query.Set("lang", "adql")
	query.Set("format", "json")
	query.Set("query", adql)
	requestURL := fmt.Sprintf("%s/sync?%s", c.config.BaseURL, query.Encode())

	var result tapResponse
	if err := c.doRequestWithRetry(reqCtx, requestURL, &result); err != nil {
		return nil, err
	}

	sources, err := result.sources()
	if err != nil {
		return nil, err
	}

	c.cache.Set(cacheKey, sources, cache.DefaultExpiration)
	logger.Debug("SIMBAD cone search complete",
		"ra", center.RA, "dec", center.Dec,
		"radius_arcmin", radiusArcmin,
		"sources", len(sources))
	return sources, nil
}

// tapResponse is the TAP service's JSON table encoding: column metadata plus
// row-major data cells.
type tapResponse struct {
	Metadata []struct {
		Name string `json:"name"`
	} `json:"metadata"`
	Data [][]any `json:"data"`
}

func (r *tapResponse) sources() ([]Source, error) {
	colIndex := make(map[string]int, len(r.Metadata))
	for i, col := range r.Metadata {
		colIndex[col.Name] = i
	}
	for _, required := range []string{"main_id", "ra", "dec"} {
		if _, ok := colIndex[required]; !ok {
			return nil, errors.Newf("SIMBAD response is missing column %s", required).
				Category(errors.CategoryCatalogUnavailable).
				Component("simbad").
				Build()
		}
	}

	sources := make([]Source, 0, len(r.Data))
	for _, row := range r.Data {
		// Truncated rows happen on malformed service output; skip them like
		// any other cell that fails to decode.
		if len(row) <= colIndex["main_id"] || len(row) <= colIndex["ra"] || len(row) <= colIndex["dec"] {
			continue
		}
		name, _ := row[colIndex["main_id"]].(string)
		ra, raOK := row[colIndex["ra"]].(float64)
		dec, decOK := row[colIndex["dec"]].(float64)
		if name == "" || !raOK || !decOK {
			continue
		}
		sources = append(sources, Source{Name: name, RA: ra, Dec: dec})
	}
	return sources, nil
}

// doRequest performs one rate-limited TAP request.
func (c *Client) doRequest(ctx context.Context, requestURL string, result *tapResponse) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return errors.New(err).
			Category(errors.CategoryTimeout).
			Component("simbad").
			Build()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, http.NoBody)
	if err != nil {
		return errors.Newf("failed to create HTTP request: %w", err).
			Category(errors.CategoryCatalogUnavailable).
			Context("url", requestURL).
			Component("simbad").
			Build()
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("SIMBAD request failed", "error", err, "url", requestURL)
		return errors.Newf("SIMBAD request failed: %w", err).
			Category(errors.CategoryCatalogUnavailable).
			Context("url", requestURL).
			Component("simbad").
			Build()
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Newf("failed to read SIMBAD response: %w", err).
			Category(errors.CategoryCatalogUnavailable).
			Context("url", requestURL).
			Component("simbad").
			Build()
	}

	if resp.StatusCode != http.StatusOK {
		preview := string(bodyBytes)
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		logger.Warn("SIMBAD error response",
			"status_code", resp.StatusCode,
			"url", requestURL,
			"response_preview", preview)
		return errors.Newf("SIMBAD returned status %d", resp.StatusCode).
			Category(errors.CategoryCatalogUnavailable).
			Context("status_code", resp.StatusCode).
			Context("url", requestURL).
			Component("simbad").
			Build()
	}

	if err := json.Unmarshal(bodyBytes, result); err != nil {
		logger.Error("failed to parse SIMBAD response",
			"error", err,
			"url", requestURL,
			"response_size", len(bodyBytes))
		return errors.Newf("failed to parse SIMBAD response: %w", err).
			Category(errors.CategoryCatalogUnavailable).
			Context("url", requestURL).
			Component("simbad").
			Build()
	}
	return nil
}

// doRequestWithRetry wraps doRequest with backoff for transient failures.
func (c *Client) doRequestWithRetry(ctx context.Context, requestURL string, result *tapResponse) error {
	const maxRetries = 3
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := c.doRequest(ctx, requestURL, result)
		if err == nil {
			return nil
		}
		lastErr = err

		// 4xx responses repeat deterministically; retrying wastes the budget
		var enhancedErr *errors.EnhancedError
		if errors.As(err, &enhancedErr) {
			if statusCode, ok := enhancedErr.Context["status_code"].(int); ok {
				if statusCode >= 400 && statusCode < 500 {
					return err
				}
			}
		}
		if ctx.Err() != nil {
			return lastErr
		}

		if attempt < maxRetries-1 {
			delay := time.Duration(attempt+1) * 500 * time.Millisecond
			logger.Warn("SIMBAD request failed, retrying",
				"attempt", attempt+1,
				"max_retries", maxRetries,
				"delay_ms", delay.Milliseconds(),
				"error", err.Error())
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}
