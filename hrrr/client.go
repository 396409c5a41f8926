package hrrr

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/geal-ai/radialinterp/internal/ctxlog"
)

// Response body caps. Real HRRR .idx files are ~200 KB and single fields
// ~600 KB; anything far larger is a misbehaving server.
const (
	maxIdxBytes  = 10 << 20
	maxGRIBBytes = 50 << 20
)

// DefaultBaseURL is the public NOAA HRRR bucket.
const DefaultBaseURL = "https://noaa-hrrr-bdp-pds.s3.amazonaws.com"

// Client fetches HRRR GRIB2 messages over HTTP byte-range requests.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string

	// Concurrency bounds FetchSeries. Zero means 4.
	Concurrency int
}

// NewClient returns a client pointed at the NOAA bucket.
func NewClient() *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
		BaseURL:    DefaultBaseURL,
	}
}

// FetchField fetches and decodes one field. run is the model run time (UTC,
// truncated to the hour), fxx the forecast hour, and varLevel a substring of
// an index line such as "TMP:2 m above ground".
func (c *Client) FetchField(ctx context.Context, run time.Time, fxx int, varLevel string) (*Field, error) {
	idxURL, gribURL := c.urls(run, fxx)
	ctxlog.FromContext(ctx).Debug("fetching hrrr field", "var", varLevel, "fxx", fxx, "url", gribURL)

	start, end, err := c.findByteRange(ctx, idxURL, varLevel)
	if err != nil {
		return nil, fmt.Errorf("index lookup %q: %w", varLevel, err)
	}
	raw, err := c.fetchRange(ctx, gribURL, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetching GRIB2 bytes: %w", err)
	}
	return DecodeMessage(raw)
}

// FetchSeries fetches one field per forecast hour concurrently. The result
// is ordered like hours, and every field shares the first field's grid.
func (c *Client) FetchSeries(ctx context.Context, run time.Time, hours []int, varLevel string) ([]*Field, error) {
	if len(hours) == 0 {
		return nil, fmt.Errorf("no forecast hours requested")
	}
	limit := c.Concurrency
	if limit <= 0 {
		limit = 4
	}

	fields := make([]*Field, len(hours))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, fxx := range hours {
		i, fxx := i, fxx
		g.Go(func() error {
			f, err := c.FetchField(gctx, run, fxx, varLevel)
			if err != nil {
				return fmt.Errorf("f%02d: %w", fxx, err)
			}
			fields[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, f := range fields[1:] {
		if f.Grid != fields[0].Grid {
			return nil, fmt.Errorf("f%02d: grid differs from f%02d", hours[i+1], hours[0])
		}
	}
	return fields, nil
}

// FetchLatest walks back hour by hour from now-1h up to maxLag hours and
// returns the first run that serves varLevel.
func (c *Client) FetchLatest(ctx context.Context, fxx int, varLevel string, maxLag int) (*Field, time.Time, error) {
	logger := ctxlog.FromContext(ctx)
	base := time.Now().UTC().Truncate(time.Hour)
	lastErr := fmt.Errorf("no runs tried")
	for lag := 1; lag <= maxLag; lag++ {
		run := base.Add(-time.Duration(lag) * time.Hour)
		f, err := c.FetchField(ctx, run, fxx, varLevel)
		if err == nil {
			return f, run, nil
		}
		if ctx.Err() != nil {
			return nil, time.Time{}, ctx.Err()
		}
		logger.Debug("hrrr run not available", "run", run.Format(time.RFC3339), "err", err)
		lastErr = err
	}
	return nil, time.Time{}, lastErr
}

func (c *Client) urls(run time.Time, fxx int) (idxURL, gribURL string) {
	run = run.UTC()
	base := fmt.Sprintf("%s/hrrr.%s/conus/hrrr.t%02dz.wrfsfcf%02d",
		c.BaseURL, run.Format("20060102"), run.Hour(), fxx)
	return base + ".grib2.idx", base + ".grib2"
}

func (c *Client) get(ctx context.Context, url, byteRange string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if byteRange != "" {
		req.Header.Set("Range", byteRange)
	}
	return c.HTTPClient.Do(req)
}

// findByteRange scans the .idx file for the first line containing varLevel
// and returns its byte range. end is math.MaxInt64 for the file's last
// message.
func (c *Client) findByteRange(ctx context.Context, idxURL, varLevel string) (start, end int64, err error) {
	resp, err := c.get(ctx, idxURL, "")
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("index fetch HTTP %d for %s", resp.StatusCode, idxURL)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxIdxBytes))
	if err != nil {
		return 0, 0, err
	}
	return parseIndex(string(body), varLevel)
}

// parseIndex reads wgrib2-style lines "n:offset:d=...:VAR:LEVEL:...".
func parseIndex(body, varLevel string) (start, end int64, err error) {
	lines := strings.Split(strings.TrimSpace(body), "\n")
	for i, line := range lines {
		if !strings.Contains(line, varLevel) {
			continue
		}
		parts := strings.Split(line, ":")
		if len(parts) < 3 {
			continue
		}
		start, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			continue
		}
		end := int64(-1)
		if i+1 < len(lines) {
			if next := strings.Split(lines[i+1], ":"); len(next) >= 2 {
				if n, err := strconv.ParseInt(next[1], 10, 64); err == nil {
					end = n - 1
				}
			}
		}
		if end < 0 {
			end = math.MaxInt64
		}
		return start, end, nil
	}
	return 0, 0, fmt.Errorf("variable %q not found in index", varLevel)
}

func (c *Client) fetchRange(ctx context.Context, url string, start, end int64) ([]byte, error) {
	byteRange := fmt.Sprintf("bytes=%d-%d", start, end)
	if end == math.MaxInt64 {
		byteRange = fmt.Sprintf("bytes=%d-", start)
	}
	resp, err := c.get(ctx, url, byteRange)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, url)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxGRIBBytes))
}
