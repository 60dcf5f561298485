// Package assets retrieves the remote photos referenced by an inspection
// and caches them on disk for the layout stage. Fetches fan out
// concurrently under a pool limit; every URL ends the stage with a
// definitive resolved-or-failed cache entry and no individual failure ever
// aborts the stage.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pi-tools/report-forge/pkg/models/domain"
)

const maxDownloadBytes = 32 << 20 // 32MB guard per image

type Options struct {
	MaxInFlight    int
	TotalTimeout   time.Duration
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	MaxDim         int
	JPEGQuality    int
	UserAgent      string
}

func DefaultOptions() Options {
	return Options{
		MaxInFlight:    30,
		TotalTimeout:   20 * time.Second,
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    10 * time.Second,
		MaxDim:         800,
		JPEGQuality:    70,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	}
}

type Fetcher struct {
	opts   Options
	client *retryablehttp.Client
}

func NewFetcher(opts Options) *Fetcher {
	rc := retryablehttp.NewClient()
	rc.Logger = nil
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 900 * time.Millisecond
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = opts.TotalTimeout
	rc.HTTPClient.Transport = &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: opts.ConnectTimeout,
		}).DialContext,
		ResponseHeaderTimeout: opts.ReadTimeout,
		MaxIdleConnsPerHost:   opts.MaxInFlight,
	}

	return &Fetcher{opts: opts, client: rc}
}

// CollectURLs walks the inspection tree and returns every unique fetchable
// photo and section-media URL, in order of first appearance. A URL shared
// by many comments appears once.
func CollectURLs(ins *domain.Inspection) []string {
	seen := make(map[string]struct{})
	var urls []string
	add := func(u string) {
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}

	for _, section := range ins.Sections {
		for _, m := range section.Media {
			add(m.URL)
		}
		for _, item := range section.LineItems {
			for _, comment := range item.Comments {
				for _, photo := range comment.Photos {
					add(photo.URL)
				}
			}
		}
	}
	return urls
}

// FetchAll downloads every URL into dir, bounded by the pool limit. It
// always completes: timeouts, non-2xx responses and decode errors become
// per-URL failure entries, and the returned cache holds a terminal state
// for every URL it was given.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string, dir string) *Cache {
	cache := NewCache()
	if len(urls) == 0 {
		return cache
	}

	logger := zerolog.Ctx(ctx)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error().Err(err).Str("dir", dir).Msg("failed to create image dir")
		for _, u := range urls {
			cache.Put(u, Resolution{Err: err})
		}
		return cache
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.opts.MaxInFlight)
	for _, url := range urls {
		if cache.Resolved(url) {
			continue
		}
		g.Go(func() error {
			path, err := f.fetchOne(gctx, url, dir)
			if err != nil {
				logger.Warn().Err(err).Str("url", url).Msg("image fetch failed")
			}
			cache.Put(url, Resolution{Path: path, Err: err})
			// Individual failures must not cancel sibling fetches.
			return nil
		})
	}
	_ = g.Wait()

	fetched, failed := cache.Stats()
	logger.Info().Int("fetched", fetched).Int("failed", failed).Msg("image fetch complete")
	return cache
}

func (f *Fetcher) fetchOne(ctx context.Context, url, dir string) (string, error) {
	path := filepath.Join(dir, Key(url))
	// Same-run idempotence: an already materialised asset is never fetched
	// again.
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.opts.TotalTimeout)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(fetchCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read body: %w", err)
	}
	if len(data) > maxDownloadBytes {
		return "", errors.New("image payload too large")
	}

	normalized, err := normalizeImage(data, f.opts.MaxDim, f.opts.JPEGQuality)
	if err != nil {
		// Undecodable payloads are kept raw rather than discarded; the
		// compiler may still be able to place them.
		normalized = data
	}

	if err := os.WriteFile(path, normalized, 0o644); err != nil {
		return "", fmt.Errorf("failed to write asset: %w", err)
	}
	return path, nil
}
