package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"lazycashier/internal/ledger"
	"lazycashier/internal/scanning"
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

	// Local .env is optional
	_ = godotenv.Load()

	fs := ff.NewFlagSet("lazycashier")
	var (
		port        = fs.IntLong("port", 8080, "HTTP server port")
		storeType   = fs.StringLong("store", "bolt", "Store type: 'bolt' or 'supabase'")
		dbPath      = fs.StringLong("db", "lazycashier.db", "Database file path (bolt store)")
		supabaseURL = fs.StringLong("supabase-url", "", "Supabase project URL (or set SUPABASE_URL env var)")
		supabaseKey = fs.StringLong("supabase-key", "", "Supabase API key (or set SUPABASE_KEY env var)")
		ocrType     = fs.StringLong("ocr", "ocrspace", "OCR provider: 'ocrspace' or 'vision'")
		ocrKey      = fs.StringLong("ocr-key", "", "OCR.space API key (or set OCR_SPACE_API_KEY env var)")
		ocrEndpoint = fs.StringLong("ocr-endpoint", "", "OCR.space endpoint override")
		visionKey   = fs.StringLong("vision-key", "", "Gemini API key for the vision provider (or set GEMINI_API_KEY env var)")
		visionModel = fs.StringLong("vision-model", "gemini-2.5-pro", "Gemini model name for the vision provider")
		authUser    = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass    = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		showVersion = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("LAZYCASHIER"),
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

	// Initialize store based on type
	var store ledger.Store
	var err error
	switch *storeType {
	case "bolt":
		slog.Info("Initializing bolt store...", "path", *dbPath)
		store, err = ledger.NewBoltStore(*dbPath)
		if err != nil {
			slog.Error("Failed to initialize store", "error", err)
			os.Exit(1)
		}
	case "supabase":
		url := *supabaseURL
		if url == "" {
			url = os.Getenv("SUPABASE_URL")
		}
		key := *supabaseKey
		if key == "" {
			key = os.Getenv("SUPABASE_KEY")
		}
		if url == "" || key == "" {
			slog.Error("Supabase URL and key are required. Set --supabase-url/--supabase-key flags or SUPABASE_URL/SUPABASE_KEY environment variables")
			os.Exit(1)
		}
		slog.Info("Initializing supabase store...", "url", url)
		store, err = ledger.NewSupabaseStore(url, key)
		if err != nil {
			slog.Error("Failed to initialize store", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid store type", "type", *storeType, "valid", "bolt or supabase")
		os.Exit(1)
	}
	defer store.Close()

	// Initialize OCR provider based on type
	var extractor scanning.TextExtractor
	switch *ocrType {
	case "ocrspace":
		apiKey := *ocrKey
		if apiKey == "" {
			apiKey = os.Getenv("OCR_SPACE_API_KEY")
		}
		if apiKey == "" {
			slog.Error("OCR.space API key is required. Set --ocr-key flag or OCR_SPACE_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing OCR.space provider...")
		extractor, err = scanning.NewOCRSpace(apiKey, *ocrEndpoint)
		if err != nil {
			slog.Error("Failed to initialize OCR.space", "error", err)
			os.Exit(1)
		}
	case "vision":
		apiKey := *visionKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --vision-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing vision provider...", "model", *visionModel)
		extractor, err = scanning.NewVision(apiKey, *visionModel)
		if err != nil {
			slog.Error("Failed to initialize vision provider", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid OCR provider", "type", *ocrType, "valid", "ocrspace or vision")
		os.Exit(1)
	}
	defer extractor.Close()

	// Initialize service
	service := ledger.NewService(store, extractor)

	// Initialize server
	basicAuth := ledger.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := ledger.NewServer(service, basicAuth)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
