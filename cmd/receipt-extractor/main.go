package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
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
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	fs := ff.NewFlagSet("receipt-extractor")
	var (
		port         = fs.IntLong("port", 8080, "HTTP server port")
		dbPath       = fs.StringLong("db", "receipts.db", "Database file path")
		storagePath  = fs.StringLong("storage", "./receipts", "Storage directory path")
		ocrEngine    = fs.StringLong("ocr-engine", "tesseract", "OCR engine: 'tesseract', 'gemini' or 'ollama'")
		ocrLang      = fs.StringLong("ocr-lang", "eng", "Tesseract languages, '+' separated (e.g. eng+hin)")
		ocrTimeout   = fs.DurationLong("ocr-timeout", 2*time.Minute, "Upper bound on download plus recognition per image")
		ocrTempDir   = fs.StringLong("ocr-temp-dir", "", "Directory for staged OCR images (default: system temp)")
		geminiKey    = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel  = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL    = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel  = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, qwen2-vl)")
		dateLocale   = fs.StringLong("date-locale", "auto", "Reading of numeric dates: 'auto', 'us' or 'in'")
		batchWorkers = fs.IntLong("batch-workers", 4, "Emails processed concurrently per batch request")
		authUser     = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass     = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECEIPT_EXTRACTOR"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	locale, ok := extraction.ParseLocale(*dateLocale)
	if !ok {
		slog.Error("Invalid date locale", "locale", *dateLocale, "valid", "auto, us or in")
		os.Exit(1)
	}

	factory, err := engineFactory(*ocrEngine, *ocrLang, *geminiKey, *geminiModel, *ollamaURL, *ollamaModel)
	if err != nil {
		slog.Error("Failed to configure OCR", "error", err)
		os.Exit(1)
	}

	slog.Info("Initializing database...", "path", *dbPath)
	db, err := receipt.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	slog.Info("Initializing storage...", "path", *storagePath)
	store, err := receipt.NewLocalStorage(*storagePath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	slog.Info("OCR engine selected", "engine", *ocrEngine, "timeout", *ocrTimeout)
	bridge := ocr.NewBridge(factory,
		ocr.WithTimeout(*ocrTimeout),
		ocr.WithTempDir(*ocrTempDir),
		ocr.WithFileRoot(store.Root()),
	)

	processor := receipt.NewProcessor(classify.Default(), receipt.WithDateLocale(locale))
	service := receipt.NewService(db, processor, bridge, store)
	service.SetBatchWorkers(*batchWorkers)

	basicAuth := receipt.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := receipt.NewServer(service, basicAuth)

	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", *port)
	if err := server.Start(ctx, addr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}

// engineFactory picks the OCR backend named on the command line
func engineFactory(name, lang, geminiKey, geminiModel, ollamaURL, ollamaModel string) (ocr.EngineFactory, error) {
	switch name {
	case "tesseract":
		return tesseract.LanguageFactory(strings.Split(lang, "+")...), nil
	case "gemini":
		apiKey := geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("gemini API key is required: set --gemini-key or GEMINI_API_KEY")
		}
		return ocr.GeminiFactory(apiKey, geminiModel), nil
	case "ollama":
		return ocr.OllamaFactory(ollamaURL, ollamaModel), nil
	default:
		return nil, fmt.Errorf("invalid OCR engine %q: want tesseract, gemini or ollama", name)
	}
}
