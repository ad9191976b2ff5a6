// Package fetch downloads the documents linked from council file records
package fetch

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/zstd"
)

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Client downloads documents with browser-like headers
type Client struct {
	resty *resty.Client
}

// New creates a client, userAgent may be empty
func New(userAgent string, timeout time.Duration) *Client {
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:134.0) Gecko/20100101 Firefox/134.0"
	}
	r := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept", "application/pdf,text/html,application/xhtml+xml,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.5").
		SetHeader("Accept-Encoding", "gzip, deflate, br, zstd")
	return &Client{resty: r}
}

// Download fetches href into dir and returns the written path. Existing files are kept.
func (c *Client) Download(ctx context.Context, href, dir string) (string, error) {
	name, err := FileName(href)
	if err != nil {
		return "", err
	}
	dst := filepath.Join(dir, name)
	if _, err := os.Stat(dst); err == nil {
		slog.Debug("document already downloaded", "path", dst)
		return dst, nil
	}

	resp, err := c.resty.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(href)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("received non-200 status code %d for %s", resp.StatusCode(), href)
	}

	reader, err := decode(resp.Header().Get("Content-Encoding"), body)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	tmp := dst + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, dst); err != nil {
		return "", err
	}
	slog.Info("document downloaded", "href", href, "path", dst)
	return dst, nil
}

// decode wraps body according to the Content-Encoding header
func decode(encoding string, body io.Reader) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip":
		r, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return r, nil
	case "deflate":
		return flate.NewReader(body), nil
	case "br":
		return io.NopCloser(brotli.NewReader(body)), nil
	case "zstd":
		r, err := zstd.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return r.IOReadCloser(), nil
	case "", "identity":
		return io.NopCloser(body), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}

// FileName derives a safe local file name from the last path segment of href
func FileName(href string) (string, error) {
	u, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return "", fmt.Errorf("no file name in %q", href)
	}
	name := strings.Trim(unsafeName.ReplaceAllString(base, "-"), "-")
	if name == "" {
		return "", fmt.Errorf("no file name in %q", href)
	}
	return name, nil
}
