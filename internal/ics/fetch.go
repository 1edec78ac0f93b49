package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	appLog "eventfeed/internal/log"
)

// Source is one external ICS subscription to import from.
type Source struct {
	// ID is a short label used in logs and in imported record sources.
	ID string
	// URL is the ICS endpoint.
	URL string
}

// FetchResult contains the outcome of fetching a single ICS source.
type FetchResult struct {
	Source    Source
	Body      []byte
	FromCache bool // true if the cached body was reused (304 or fallback)
}

// cacheEntry holds HTTP cache metadata for a single ICS URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher downloads ICS feeds with retries and a disk-backed conditional
// request cache (ETag / Last-Modified).
type Fetcher struct {
	client   *retryablehttp.Client
	cacheDir string
}

// NewFetcher creates a Fetcher caching under cacheDir, one subdirectory per
// URL. retryMax is the number of retries after the first attempt.
func NewFetcher(cacheDir string, retryMax int) *Fetcher {
	if cacheDir == "" {
		cacheDir = "./var/ics-cache"
	}
	if retryMax < 0 {
		retryMax = 0
	}

	client := retryablehttp.NewClient()
	client.RetryMax = retryMax
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = 15 * time.Second
	client.Logger = appLog.KVLogger{}
	// Hand the last response back so non-OK statuses can fall back to cache.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Fetcher{
		client:   client,
		cacheDir: cacheDir,
	}
}

// FetchOne fetches a single ICS source, honoring ETag and Last-Modified.
// On network errors or non-OK statuses a previously cached body is returned
// instead when one exists.
func (f *Fetcher) FetchOne(ctx context.Context, src Source) (FetchResult, error) {
	if src.URL == "" {
		return FetchResult{}, errors.New("source URL is empty")
	}

	cachePath := f.cachePathForURL(src.URL)
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return FetchResult{}, err
	}

	meta, _ := f.loadCacheMeta(cachePath)
	cachedBody, _ := f.loadCacheBody(cachePath)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return FetchResult{}, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	appLog.Info("ics fetch start", "id", src.ID, "url", redactURL(src.URL))

	cached := FetchResult{Source: src, Body: cachedBody, FromCache: true}

	resp, err := f.client.Do(req)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Error("ics fetch network error, using cached body", err, "id", src.ID, "url", redactURL(src.URL))
			return cached, nil
		}
		return FetchResult{}, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return FetchResult{}, readErr
		}

		newMeta := cacheEntry{
			URL:          src.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := f.saveCache(cachePath, newMeta, body); err != nil {
			appLog.Error("ics cache save failed", err, "id", src.ID, "url", redactURL(src.URL))
		}

		appLog.Info("ics fetch success", "id", src.ID, "url", redactURL(src.URL), "status", resp.StatusCode, "bytes", len(body))
		return FetchResult{Source: src, Body: body}, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return FetchResult{}, errors.New("received 304 Not Modified but no cached body available")
		}
		appLog.Info("ics fetch not modified; using cache", "id", src.ID, "url", redactURL(src.URL))
		return cached, nil

	default:
		statusErr := fmt.Errorf("ics fetch: unexpected status %s", resp.Status)
		if len(cachedBody) > 0 {
			appLog.Error("ics fetch non-OK, using cached body", statusErr, "id", src.ID, "url", redactURL(src.URL))
			return cached, nil
		}
		return FetchResult{}, statusErr
	}
}

func (f *Fetcher) cachePathForURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func (f *Fetcher) loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func (f *Fetcher) loadCacheBody(cachePath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(cachePath, "body.ics"))
}

func (f *Fetcher) saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Body first so meta never points at a missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body.ics"), body, 0o600); err != nil {
		return err
	}

	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL keeps scheme and host only; subscription URLs often embed tokens.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	_, rest, ok := strings.Cut(u, "://")
	if !ok {
		return "ics://...(redacted)"
	}
	host, _, _ := strings.Cut(rest, "/")
	host, _, _ = strings.Cut(host, "?")
	return u[:len(u)-len(rest)] + host + redactedSuffix
}
