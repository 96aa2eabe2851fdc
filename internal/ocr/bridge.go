package ocr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"
)

const (
	defaultTimeout     = 2 * time.Minute
	defaultBackoff     = time.Second
	defaultMaxAttempts = 3

	// MaxImageBytes is the largest image the bridge downloads.
	MaxImageBytes = 50 << 20
)

// Bridge downloads receipt images and runs them through an OCR engine.
type Bridge struct {
	newEngine   EngineFactory
	client      *http.Client
	timeout     time.Duration
	backoff     time.Duration
	maxAttempts int
	maxBytes    int64
	fileRoot    string
	tempDir     string
	logger      *slog.Logger
	sleep       func(ctx context.Context, d time.Duration) error
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithHTTPClient sets the client used for downloads. It replaces the client
// NewHTTPClient would build, file root and redirect policy included.
func WithHTTPClient(client *http.Client) Option {
	return func(b *Bridge) { b.client = client }
}

// WithTimeout bounds the whole download and recognition sequence.
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.timeout = d }
}

// WithBackoff sets the delay before the second download attempt. Each later
// attempt waits twice as long as the one before.
func WithBackoff(d time.Duration) Option {
	return func(b *Bridge) { b.backoff = d }
}

// WithMaxAttempts sets how many times a download is tried.
func WithMaxAttempts(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.maxAttempts = n
		}
	}
}

// WithMaxImageBytes caps the size of a downloaded image.
func WithMaxImageBytes(n int64) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.maxBytes = n
		}
	}
}

// WithFileRoot lets the bridge read file:// URLs, resolved inside dir.
// Without it file:// URLs are not fetched at all.
func WithFileRoot(dir string) Option {
	return func(b *Bridge) { b.fileRoot = dir }
}

// WithTempDir sets where downloaded images are staged.
func WithTempDir(dir string) Option {
	return func(b *Bridge) { b.tempDir = dir }
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) { b.logger = logger }
}

// NewBridge creates a Bridge that builds a new engine for every image.
func NewBridge(newEngine EngineFactory, opts ...Option) *Bridge {
	b := &Bridge{
		newEngine:   newEngine,
		timeout:     defaultTimeout,
		backoff:     defaultBackoff,
		maxAttempts: defaultMaxAttempts,
		maxBytes:    MaxImageBytes,
		logger:      slog.Default(),
		sleep:       sleep,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.client == nil {
		b.client = NewHTTPClient(b.fileRoot)
	}
	return b
}

// NewHTTPClient returns the download client. When fileRoot is set it also
// serves file:// URLs from that directory, which is how local storage hands
// out receipt images. Redirects may only lead to http or https, so a remote
// server cannot point the bridge at a local file.
func NewHTTPClient(fileRoot string) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if fileRoot != "" {
		transport.RegisterProtocol("file", http.NewFileTransport(http.Dir(fileRoot)))
	}
	return &http.Client{
		Transport:     transport,
		CheckRedirect: checkRedirect,
	}
}

func checkRedirect(req *http.Request, via []*http.Request) error {
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("%w: %s", ErrRedirectRefused, req.URL.Redacted())
	}
	if len(via) >= 10 {
		return errors.New("stopped after 10 redirects")
	}
	return nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ExtractTextFromImage downloads the image at imageURL and returns the raw
// text the engine recognizes in it. The staged temp file is removed on every
// return path, including timeouts.
func (b *Bridge) ExtractTextFromImage(ctx context.Context, imageURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	f, err := os.CreateTemp(b.tempDir, "receipt-ocr-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	staged := true
	defer func() {
		if staged {
			f.Close()
			removeTemp(b.logger, path)
		}
	}()

	data, contentType, err := b.download(ctx, imageURL)
	if err != nil {
		return "", err
	}

	pngData, err := toPNG(data, contentType)
	if err != nil {
		return "", fmt.Errorf("preparing image: %w", err)
	}
	if _, err := f.Write(pngData); err != nil {
		return "", fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	engine, err := b.newEngine(ctx)
	if err != nil {
		return "", &RecognitionError{Err: fmt.Errorf("starting engine: %w", err)}
	}

	// From here the engine owns the temp file until it is closed.
	staged = false
	release := func() {
		if err := engine.Close(); err != nil {
			b.logger.Warn("Failed to close OCR engine", "error", err)
		}
		removeTemp(b.logger, path)
	}

	type recognition struct {
		text string
		err  error
	}
	done := make(chan recognition, 1)
	go func() {
		text, err := engine.Recognize(ctx, path)
		done <- recognition{text: text, err: err}
	}()

	select {
	case r := <-done:
		release()
		if r.err != nil {
			return "", &RecognitionError{Err: r.err}
		}
		b.logger.Info("Recognized receipt image", "url", imageURL, "chars", len(r.text))
		return r.text, nil
	case <-ctx.Done():
		go func() {
			<-done
			release()
		}()
		return "", fmt.Errorf("recognizing %s: %w", imageURL, ctx.Err())
	}
}

// download fetches url, retrying failed attempts with exponential backoff.
// Oversized images and refused redirects are not retried.
func (b *Bridge) download(ctx context.Context, url string) ([]byte, string, error) {
	var lastErr error
	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := b.sleep(ctx, b.backoff<<(attempt-2)); err != nil {
				return nil, "", &DownloadError{URL: url, Attempts: attempt - 1, Err: err}
			}
		}

		data, contentType, err := b.fetch(ctx, url)
		if err == nil {
			return data, contentType, nil
		}
		lastErr = err
		b.logger.Warn("Image download failed", "url", url, "attempt", attempt, "error", err)

		if ctx.Err() != nil {
			return nil, "", &DownloadError{URL: url, Attempts: attempt, Err: ctx.Err()}
		}
		if errors.Is(err, ErrImageTooLarge) || errors.Is(err, ErrRedirectRefused) {
			return nil, "", &DownloadError{URL: url, Attempts: attempt, Err: err}
		}
	}
	return nil, "", &DownloadError{URL: url, Attempts: b.maxAttempts, Err: lastErr}
}

func (b *Bridge) fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, b.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading body: %w", err)
	}
	if int64(len(data)) > b.maxBytes {
		return nil, "", fmt.Errorf("%w: more than %d bytes", ErrImageTooLarge, b.maxBytes)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func removeTemp(logger *slog.Logger, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to remove temp file", "path", path, "error", err)
	}
}
