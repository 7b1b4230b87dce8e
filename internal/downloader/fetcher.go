package downloader

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/brogergvhs/mangarip/internal/util"
	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/google/uuid"
)

const (
	defaultAttempts = 3
	defaultBackoff  = time.Second
	defaultPadWidth = 4
)

var extByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/avif": ".avif",
	"image/bmp":  ".bmp",
}

// Fetcher downloads single images into a staging folder.
type Fetcher struct {
	client   *http.Client
	attempts int
	backoff  time.Duration
	padWidth int
	referer  string
	onBytes  func(n int64)
}

type FetcherOption func(*Fetcher)

// WithRetry sets the number of attempts and the base of the linear backoff.
func WithRetry(attempts int, backoff time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if attempts > 0 {
			f.attempts = attempts
		}
		if backoff >= 0 {
			f.backoff = backoff
		}
	}
}

func WithPadWidth(width int) FetcherOption {
	return func(f *Fetcher) {
		if width > 0 {
			f.padWidth = width
		}
	}
}

// WithByteCounter reports every chunk written to disk.
func WithByteCounter(fn func(n int64)) FetcherOption {
	return func(f *Fetcher) { f.onBytes = fn }
}

func NewFetcher(c *http.Client, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:   c,
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
		padWidth: defaultPadWidth,
	}
	for _, opt := range opts {
		opt(f)
	}

	return f
}

// WithReferer returns a copy that sends referer with every request.
func (f *Fetcher) WithReferer(referer string) *Fetcher {
	cp := *f
	cp.referer = referer
	return &cp
}

type permanentError struct {
	err error
}

func (e permanentError) Error() string { return e.err.Error() }

func (e permanentError) Unwrap() error { return e.err }

func retryable(err error) bool {
	var perm permanentError
	if errors.As(err, &perm) {
		return false
	}

	var serr *util.StatusError
	if errors.As(err, &serr) {
		return serr.Transient()
	}

	return true
}

// Fetch stores the image at location in folder and returns its path. With an
// index the file is named by the zero-padded index, otherwise by the name the
// server suggests.
//
// A started transfer is not interrupted by ctx; cancellation is only observed
// while waiting between attempts.
func (f *Fetcher) Fetch(ctx context.Context, location, folder string, index *int) (string, error) {
	transfer := context.WithoutCancel(ctx)

	var err error
	for attempt := 1; attempt <= f.attempts; attempt++ {
		var p string
		p, err = f.fetchOnce(transfer, location, folder, index)
		if err == nil {
			return p, nil
		}

		if !retryable(err) || attempt == f.attempts {
			break
		}

		select {
		case <-ctx.Done():
			return "", ErrCancelled
		case <-time.After(f.backoff * time.Duration(attempt)):
		}
	}

	return "", &FetchFailedError{Location: location, Cause: err}
}

func (f *Fetcher) fetchOnce(ctx context.Context, location, folder string, index *int) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return "", permanentError{err}
	}

	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cache-Control", "no-cache")
	if f.referer != "" {
		req.Header.Set("Referer", f.referer)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &util.StatusError{Code: resp.StatusCode}
	}

	mediaType := ""
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType, _, _ = mime.ParseMediaType(ct)
		if !strings.HasPrefix(mediaType, "image/") && mediaType != "application/octet-stream" {
			return "", permanentError{fmt.Errorf("unexpected MIME: %s", ct)}
		}
	}

	target, err := f.target(folder, f.fileName(resp, location, mediaType, index))
	if err != nil {
		return "", permanentError{err}
	}

	part := target + ".part"
	file, err := os.Create(part)
	if err != nil {
		return "", permanentError{err}
	}

	_, err = copyCounting(file, resp.Body, f.onBytes)
	if cerr := file.Close(); err == nil && cerr != nil {
		err = permanentError{cerr}
	}
	if err != nil {
		_ = os.Remove(part)
		return "", err
	}

	if err := os.Rename(part, target); err != nil {
		_ = os.Remove(part)
		return "", permanentError{err}
	}

	return target, nil
}

func (f *Fetcher) fileName(resp *http.Response, location, mediaType string, index *int) string {
	ext := extension(mediaType, location)
	if index != nil {
		return fmt.Sprintf("%0*d%s", f.padWidth, *index, ext)
	}

	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := cleanName(params["filename"]); name != "" {
				return withImageExt(name, ext)
			}
		}
	}

	if u, err := url.Parse(location); err == nil {
		if name := cleanName(path.Base(u.Path)); name != "" && path.Ext(name) != "" {
			return withImageExt(name, ext)
		}
	}

	return uuid.NewString() + ext
}

// target joins name under folder without letting it escape, and picks a free
// name when two pages suggest the same one.
func (f *Fetcher) target(folder, name string) (string, error) {
	p, err := securejoin.SecureJoin(folder, name)
	if err != nil {
		return "", err
	}

	ext := filepath.Ext(p)
	stem := strings.TrimSuffix(p, ext)
	for i := 1; ; i++ {
		_, err := os.Lstat(p)
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		if err != nil {
			return "", err
		}
		p = fmt.Sprintf("%s-%d%s", stem, i, ext)
	}
}

func cleanName(name string) string {
	name = strings.Trim(strings.TrimSpace(name), `"`)
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "." || name == "/" || name == ".." {
		return ""
	}

	return name
}

func extension(mediaType, location string) string {
	if ext, ok := extByType[mediaType]; ok {
		return ext
	}

	if u, err := url.Parse(location); err == nil {
		if ext := strings.ToLower(path.Ext(u.Path)); imageExt(ext) {
			return ext
		}
	}

	return ".jpg"
}

func imageExt(ext string) bool {
	if ext == ".jpeg" {
		return true
	}
	for _, known := range extByType {
		if ext == known {
			return true
		}
	}

	return false
}

// withImageExt swaps a suggested name's extension for ext unless it already
// names an image type.
func withImageExt(name, ext string) string {
	if imageExt(strings.ToLower(path.Ext(name))) {
		return name
	}

	return strings.TrimSuffix(name, path.Ext(name)) + ext
}
