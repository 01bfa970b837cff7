// Package cowin provides the HTTP client for the CoWIN public appointment API.
//
// The API is unauthenticated but aggressively rate limited and only answers
// requests that look like they come from the official web site, so every
// request carries browser-like headers and goes through a token bucket.
package cowin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ykvlv/cowin-alert-bot/internal/domain"
)

const (
	DefaultBaseURL = "https://cdn-api.co-vin.in"
	calendarPath   = "/api/v2/appointment/sessions/public/calendarByPin"

	// DateLayout is the provider's DD-MM-YYYY date format.
	DateLayout = "02-01-2006"
)

var defaultHeaders = map[string]string{
	"Accept":          "application/json, text/plain",
	"Accept-Language": "en-US,en;q=0.5",
	"Origin":          "https://www.cowin.gov.in",
	"Referer":         "https://www.cowin.gov.in/",
	"Pragma":          "no-cache",
	"Cache-Control":   "no-cache",
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/92.0.4476.0 Safari/537.36",
}

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL           string
	Timeout           time.Duration // per request, default 10s
	RequestsPerMinute int           // default 90
	HTTPClient        *http.Client  // overrides Timeout when set
}

// Client is the slot provider client. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	log        *zap.Logger
}

// NewClient creates a rate-limited CoWIN client.
func NewClient(opts Options, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 90
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	rps := float64(opts.RequestsPerMinute) / 60.0
	return &Client{
		httpClient: hc,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		log:        log,
	}
}

// Today returns the current date in loc formatted for the API.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(DateLayout)
}

type calendarResponse struct {
	Centers []centerDTO `json:"centers"`
}

type centerDTO struct {
	Name      string       `json:"name"`
	BlockName string       `json:"block_name"`
	FeeType   string       `json:"fee_type"`
	Sessions  []sessionDTO `json:"sessions"`
}

type sessionDTO struct {
	Date              string   `json:"date"`
	AvailableCapacity float64  `json:"available_capacity"`
	MinAgeLimit       int      `json:"min_age_limit"`
	Vaccine           string   `json:"vaccine"`
	Slots             []string `json:"slots"`
}

func (c centerDTO) toDomain() domain.VaccinationCenter {
	out := domain.VaccinationCenter{
		Name:      c.Name,
		BlockName: c.BlockName,
		FeeType:   domain.FeeType(c.FeeType),
	}
	if len(c.Sessions) > 0 {
		out.Sessions = make([]domain.Session, 0, len(c.Sessions))
	}
	for _, s := range c.Sessions {
		out.Sessions = append(out.Sessions, domain.Session{
			Date:              s.Date,
			AvailableCapacity: int(s.AvailableCapacity),
			MinAgeLimit:       s.MinAgeLimit,
			Vaccine:           s.Vaccine,
			Slots:             s.Slots,
		})
	}
	return out
}

// FetchCenters returns the centers for pincode on date (DD-MM-YYYY).
//
// HTTP 400 yields an *APIError wrapping ErrInvalidRequest and HTTP 403 one
// wrapping ErrRateLimited. Every other failure (timeouts, 5xx, undecodable
// bodies) is reported as no data: nil centers and a nil error. Only
// cancellation of ctx itself is returned as an error otherwise.
func (c *Client) FetchCenters(ctx context.Context, pincode, date string) ([]domain.VaccinationCenter, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("pincode", pincode)
	params.Set("date", date)
	u := c.baseURL + calendarPath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range defaultHeaders {
		req.Header.Set(k, v)
	}

	log := c.log.With(zap.String("pincode", pincode), zap.String("date", date))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ctx.Err()
		}
		log.Debug("calendarByPin request failed", zap.Error(err))
		return nil, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Debug("read response body failed", zap.Error(err))
		return nil, nil
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		apiErr := &APIError{}
		if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
			apiErr.Code = "400"
			apiErr.Message = truncate(body, 200)
		}
		apiErr.Kind = ErrInvalidRequest
		return nil, apiErr
	case http.StatusForbidden:
		return nil, rateLimitedError()
	default:
		log.Debug("calendarByPin unexpected status",
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(body, 200)),
		)
		return nil, nil
	}

	var result calendarResponse
	if err := json.Unmarshal(body, &result); err != nil {
		log.Warn("decode calendarByPin response", zap.Error(err))
		return nil, nil
	}

	centers := make([]domain.VaccinationCenter, 0, len(result.Centers))
	for _, dto := range result.Centers {
		centers = append(centers, dto.toDomain())
	}
	return centers, nil
}

// truncate returns a truncated string representation for logs and errors.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
