// Package ingest fetches Powerball draw history from the NY Open Data API
// and keeps the local dataset current.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rdelaney/powerplay/internal/model"
)

const (
	// DefaultAPIURL is the NY Open Data Powerball winning numbers endpoint.
	DefaultAPIURL = "https://data.ny.gov/resource/d6yy-54nr.json"

	defaultTimeout         = 15 * time.Second
	defaultRequestInterval = 2 * time.Second
	defaultCooldown        = 6 * time.Hour
	defaultPageSize        = 5000

	maxRetries     = 3
	initialBackoff = 1 * time.Second
	maxBackoff     = 16 * time.Second

	apiDateLayout = "2006-01-02T15:04:05.000"
)

// ErrCooldown indicates the last fetch is too recent and was skipped.
var ErrCooldown = errors.New("fetch skipped: cooldown in effect")

// apiDraw is one record as the NY Open Data API returns it.
type apiDraw struct {
	DrawDate       string `json:"draw_date"`
	WinningNumbers string `json:"winning_numbers"`
	Multiplier     string `json:"multiplier"`
}

// Options configures the ingest client.
type Options struct {
	// APIURL is the endpoint to fetch from. Empty means DefaultAPIURL.
	APIURL string

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// RequestInterval is the minimum delay between requests.
	RequestInterval time.Duration

	// Cooldown is the minimum time between fetch runs. The time of the
	// last run is tracked through CooldownPath's modification time.
	Cooldown time.Duration

	// CooldownPath is the marker file recording the last fetch. Empty
	// disables the cooldown check.
	CooldownPath string

	// Logger receives fetch progress. Nil means slog.Default().
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.APIURL == "" {
		o.APIURL = DefaultAPIURL
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.RequestInterval <= 0 {
		o.RequestInterval = defaultRequestInterval
	}
	if o.Cooldown <= 0 {
		o.Cooldown = defaultCooldown
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Client fetches draw records with rate limiting and retries.
type Client struct {
	opts       Options
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates an ingest client.
func NewClient(opts Options) *Client {
	opts = opts.withDefaults()
	return &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
		limiter:    rate.NewLimiter(rate.Every(opts.RequestInterval), 1),
		logger:     opts.Logger,
	}
}

// Backfill fetches the full draw history, oldest first. Records the API
// returns malformed are logged and dropped; one bad record never aborts
// the run. Honors the cooldown unless force is set.
func (c *Client) Backfill(ctx context.Context, force bool) ([]model.DrawRecord, error) {
	if !force {
		if err := c.checkCooldown(); err != nil {
			return nil, err
		}
	}

	var all []model.DrawRecord
	for offset := 0; ; offset += defaultPageSize {
		page, err := c.fetchPage(ctx, defaultPageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < defaultPageSize {
			break
		}
	}

	c.touchCooldown()
	c.logger.Info("backfill complete", "records", len(all))
	return all, nil
}

// Latest fetches the n most recent draws. Honors the cooldown unless
// force is set.
func (c *Client) Latest(ctx context.Context, n int, force bool) ([]model.DrawRecord, error) {
	if n <= 0 {
		n = 1
	}
	if !force {
		if err := c.checkCooldown(); err != nil {
			return nil, err
		}
	}

	records, err := c.fetchOrdered(ctx, n, 0, "draw_date DESC")
	if err != nil {
		return nil, err
	}
	c.touchCooldown()
	return model.Normalize(records, c.logger), nil
}

func (c *Client) fetchPage(ctx context.Context, limit, offset int) ([]model.DrawRecord, error) {
	return c.fetchOrdered(ctx, limit, offset, "draw_date ASC")
}

func (c *Client) fetchOrdered(ctx context.Context, limit, offset int, order string) ([]model.DrawRecord, error) {
	q := url.Values{}
	q.Set("$limit", strconv.Itoa(limit))
	q.Set("$offset", strconv.Itoa(offset))
	q.Set("$order", order)

	var raw []apiDraw
	if err := c.doRequest(ctx, c.opts.APIURL+"?"+q.Encode(), &raw); err != nil {
		return nil, err
	}

	records := make([]model.DrawRecord, 0, len(raw))
	for _, d := range raw {
		rec, err := parseAPIDraw(d)
		if err != nil {
			c.logger.Warn("dropping malformed draw", "draw_date", d.DrawDate, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// doRequest performs an HTTP GET with rate limiting and retry on transient
// failures.
func (c *Client) doRequest(ctx context.Context, requestURL string, result any) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			if attempt < maxRetries {
				time.Sleep(backoff)
				backoff = min(backoff*2, maxBackoff)
				continue
			}
			return lastErr
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				return fmt.Errorf("read response body: %w", readErr)
			}
			if err := json.Unmarshal(body, result); err != nil {
				return fmt.Errorf("parse response: %w", err)
			}
			return nil

		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("api returned status %d", resp.StatusCode)
			if attempt < maxRetries {
				time.Sleep(backoff)
				backoff = min(backoff*2, maxBackoff)
				continue
			}
			return lastErr

		default:
			return fmt.Errorf("api request failed with status %d: %s", resp.StatusCode, string(body))
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// checkCooldown returns ErrCooldown when the marker file is newer than the
// cooldown window.
func (c *Client) checkCooldown() error {
	if c.opts.CooldownPath == "" {
		return nil
	}
	info, err := os.Stat(c.opts.CooldownPath)
	if err != nil {
		return nil // no marker yet
	}
	if elapsed := time.Since(info.ModTime()); elapsed < c.opts.Cooldown {
		return fmt.Errorf("%w: last fetch %s ago, cooldown %s", ErrCooldown, elapsed.Round(time.Minute), c.opts.Cooldown)
	}
	return nil
}

func (c *Client) touchCooldown() {
	if c.opts.CooldownPath == "" {
		return
	}
	now := time.Now()
	if err := os.Chtimes(c.opts.CooldownPath, now, now); err != nil {
		if f, createErr := os.Create(c.opts.CooldownPath); createErr == nil {
			_ = f.Close()
		} else {
			c.logger.Warn("could not record fetch time", "path", c.opts.CooldownPath, "error", createErr)
		}
	}
}

// parseAPIDraw converts one API record. The winning_numbers field is six
// space separated integers, five whites then the red ball.
func parseAPIDraw(d apiDraw) (model.DrawRecord, error) {
	date, err := parseAPIDate(d.DrawDate)
	if err != nil {
		return model.DrawRecord{}, err
	}

	fields := strings.Fields(d.WinningNumbers)
	if len(fields) != model.WhiteCount+1 {
		return model.DrawRecord{}, fmt.Errorf("%w: expected %d numbers, got %d", model.ErrInvalidRecord, model.WhiteCount+1, len(fields))
	}

	numbers := make([]int, len(fields))
	for i, f := range fields {
		numbers[i], err = strconv.Atoi(f)
		if err != nil {
			return model.DrawRecord{}, fmt.Errorf("%w: bad number %q", model.ErrInvalidRecord, f)
		}
	}

	powerPlay := 0
	if d.Multiplier != "" {
		// A missing or odd multiplier loses only the multiplier.
		powerPlay, _ = strconv.Atoi(d.Multiplier)
	}

	return model.NewDrawRecord(date, numbers[:model.WhiteCount], numbers[model.WhiteCount], powerPlay)
}

func parseAPIDate(s string) (time.Time, error) {
	for _, layout := range []string{apiDateLayout, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: bad draw date %q", model.ErrInvalidRecord, s)
}
