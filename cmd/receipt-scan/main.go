// Command receipt-scan runs saved emails or receipt images through the
// extraction pipeline and prints the results as JSON, one per line.
package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/zombor/receipt-extractor/internal/classify"
	"github.com/zombor/receipt-extractor/internal/extraction"
	"github.com/zombor/receipt-extractor/internal/ocr"
	"github.com/zombor/receipt-extractor/internal/ocr/tesseract"
	"github.com/zombor/receipt-extractor/internal/receipt"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	fs := ff.NewFlagSet("receipt-scan")
	var (
		image       = fs.StringLong("image", "", "Image URL or local path to OCR instead of reading emails")
		rawText     = fs.BoolLong("raw", "Print the recognized text instead of extracted fields (with --image)")
		ocrLang     = fs.StringLong("ocr-lang", "eng", "Tesseract languages, '+' separated (e.g. eng+hin)")
		ocrTimeout  = fs.DurationLong("ocr-timeout", 2*time.Minute, "Upper bound on download plus recognition")
		dateLocale  = fs.StringLong("date-locale", "auto", "Reading of numeric dates: 'auto', 'us' or 'in'")
		verbose     = fs.BoolLong("verbose", "Log classifier signals to stderr")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_EXTRACTOR"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	locale, ok := extraction.ParseLocale(*dateLocale)
	if !ok {
		slog.Error("Invalid date locale", "locale", *dateLocale)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	classifier := classify.Default()
	processor := receipt.NewProcessor(classifier, receipt.WithDateLocale(locale))
	out := json.NewEncoder(os.Stdout)

	if *image != "" {
		imageURL, root, err := toURL(*image)
		if err != nil {
			slog.Error("Invalid image", "image", *image, "error", err)
			os.Exit(1)
		}
		bridge := ocr.NewBridge(tesseract.LanguageFactory(strings.Split(*ocrLang, "+")...),
			ocr.WithTimeout(*ocrTimeout),
			ocr.WithFileRoot(root),
		)
		if err := scanImage(ctx, bridge, processor, out, imageURL, *image, *rawText); err != nil {
			slog.Error("Scan failed", "image", *image, "error", err)
			os.Exit(1)
		}
		return
	}

	paths := fs.GetArgs()
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintln(os.Stderr, "error: give one or more .eml files, or --image")
		os.Exit(1)
	}

	failed := false
	for _, path := range paths {
		email, err := readEmail(path)
		if err != nil {
			slog.Error("Skipping email", "path", path, "error", err)
			failed = true
			continue
		}
		slog.Debug("Classified", "path", path, "signals", classifier.Signals(email.From, email.Subject, email.Body))
		if err := out.Encode(processor.Process(email)); err != nil {
			slog.Error("Writing result", "error", err)
			os.Exit(1)
		}
	}
	if failed {
		os.Exit(1)
	}
}

func readEmail(path string) (receipt.Email, error) {
	f, err := os.Open(path)
	if err != nil {
		return receipt.Email{}, err
	}
	defer f.Close()

	email, err := receipt.ParseEmail(f)
	if err != nil {
		return receipt.Email{}, err
	}
	if email.ID == "" {
		email.ID = filepath.Base(path)
	}
	return email, nil
}

func scanImage(ctx context.Context, bridge *ocr.Bridge, processor *receipt.Processor, out *json.Encoder, imageURL, sourceID string, raw bool) error {
	text, err := bridge.ExtractTextFromImage(ctx, imageURL)
	if err != nil {
		return err
	}
	if raw {
		_, err := fmt.Println(text)
		return err
	}
	return out.Encode(processor.ProcessText(sourceID, text))
}

// toURL passes URLs through. A local path becomes a file:// URL relative to
// root, the file's directory.
func toURL(s string) (imageURL, root string, err error) {
	if u, err := url.Parse(s); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		return s, "", nil
	}
	abs, err := filepath.Abs(s)
	if err != nil {
		return "", "", fmt.Errorf("resolving %s: %w", s, err)
	}
	if _, err := os.Stat(abs); errors.Is(err, os.ErrNotExist) {
		return "", "", fmt.Errorf("no such file: %s", abs)
	}
	u := url.URL{Scheme: "file", Path: "/" + filepath.Base(abs)}
	return u.String(), filepath.Dir(abs), nil
}
