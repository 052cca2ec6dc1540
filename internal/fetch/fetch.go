// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch downloads raw provider documents into documents/raw/ for
// the ingest stage.
package fetch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/vehicle-history/internal/httputil"
	"github.com/pdiddy/vehicle-history/pkg/types"
)

const rawDir = "raw"

// TokenKeys maps each provider to the secrets file holding its API token.
var TokenKeys = map[types.Provider]string{
	types.ProviderCarfax:    "carfax-api-token",
	types.ProviderAutoCheck: "autocheck-api-token",
}

// hostMarkers identify a provider from a download host.
var hostMarkers = map[types.Provider][]string{
	types.ProviderCarfax:    {"carfax"},
	types.ProviderAutoCheck: {"autocheck", "experian"},
}

// BatchResult holds the outcome of a batch fetch run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
	Paths      []string
}

// Total returns the total number of URLs processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any download failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Tokens picks the provider API tokens out of loaded secrets.
func Tokens(secrets map[string]string) map[types.Provider]string {
	out := make(map[types.Provider]string)
	for p, key := range TokenKeys {
		if v := secrets[key]; v != "" {
			out[p] = v
		}
	}
	return out
}

// ProviderForURL guesses the provider serving rawURL from its host, or "".
func ProviderForURL(rawURL string) types.Provider {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	for _, p := range types.Providers {
		for _, m := range hostMarkers[p] {
			if strings.Contains(host, m) {
				return p
			}
		}
	}
	return ""
}

// Slug returns a filesystem-safe filename stem for rawURL: the last path
// element without extension, or a hash when the path has none.
func Slug(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return urlHashSlug(rawURL)
	}
	base := strings.TrimSuffix(filepath.Base(u.Path), filepath.Ext(u.Path))
	if base == "" || base == "." || base == "/" {
		return urlHashSlug(rawURL)
	}
	return base
}

func urlHashSlug(rawURL string) string {
	h := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf("url-%x", h[:8])
}

// FetchDocument downloads rawURL to documents/raw/<slug>.html. If the file
// already exists the download is skipped. The skipped return value reports
// whether that happened.
func FetchDocument(ctx context.Context, client *http.Client, rawURL string, cfg types.FetchConfig, w io.Writer) (path string, skipped bool, err error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false, eris.Errorf("fetch: unsupported URL %q", rawURL)
	}
	rawURL = u.String()

	slug := Slug(rawURL)
	dir := filepath.Join(cfg.DocumentsDir, rawDir)
	dest := filepath.Join(dir, slug+".html")

	if _, err := os.Stat(dest); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", slug)
		return dest, true, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, eris.Wrapf(err, "fetch: create directory %s", dir)
	}

	provider := ProviderForURL(rawURL)
	fmt.Fprintf(w, "downloading: %s\n", slug)
	zap.L().Debug("fetching document", zap.String("url", rawURL), zap.String("provider", string(provider)))

	if err := downloadFile(ctx, client, rawURL, dest, cfg.Tokens[provider], cfg); err != nil {
		return "", false, eris.Wrapf(err, "fetch: download %s", slug)
	}
	return dest, false, nil
}

// FetchBatch downloads every URL, printing per-item status and returning a
// summary. It continues after individual failures and spaces consecutive
// requests at least cfg.DownloadDelay apart.
func FetchBatch(ctx context.Context, client *http.Client, urls []string, cfg types.FetchConfig, w io.Writer) (BatchResult, error) {
	var result BatchResult
	limiter := newLimiter(cfg.DownloadDelay)
	for _, u := range urls {
		if err := limiter.Wait(ctx); err != nil {
			return result, eris.Wrap(err, "fetch: waiting for download slot")
		}
		path, skipped, err := FetchDocument(ctx, client, u, cfg, w)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			fmt.Fprintf(w, "failed:  %s (%v)\n", u, err)
			zap.L().Warn("fetch failed", zap.String("url", u), zap.Error(err))
			result.Failed++
			continue
		}
		if skipped {
			result.Skipped++
		} else {
			result.Downloaded++
		}
		result.Paths = append(result.Paths, path)
	}
	fmt.Fprintf(w, "\nBatch summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result, nil
}

// newLimiter allows one request immediately and then one per delay.
func newLimiter(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// downloadFile fetches rawURL to destPath through a temporary file, with
// 429 backoff.
func downloadFile(ctx context.Context, client *http.Client, rawURL, destPath, token string, cfg types.FetchConfig) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return eris.Wrap(err, "creating request")
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		return eris.Wrap(err, "HTTP request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("HTTP %d from %s", resp.StatusCode, rawURL)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".fetch-*.tmp")
	if err != nil {
		return eris.Wrap(err, "creating temp file")
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return eris.Wrap(copyErr, "writing download")
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return eris.Wrap(closeErr, "closing temp file")
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return eris.Wrap(err, "renaming temp file")
	}
	return nil
}
