package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/zombor/photo-metadata/internal/logging"
	"github.com/zombor/photo-metadata/internal/photo"
	"github.com/zombor/photo-metadata/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	os.Exit(run())
}

// run wires the components and blocks until the batch or the server is
// done. It returns the exit code so deferred cleanup always runs.
func run() int {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			return 0
		}
	}

	fs := ff.NewFlagSet("photo-metadata")
	var (
		port         = fs.IntLong("port", 8080, "HTTP server port")
		dbPath       = fs.StringLong("db", "photo-metadata.db", "Batch history database file path")
		outputPath   = fs.StringLong("output", photo.DefaultOutputPath, "Where the metadata document is written")
		scriptPath   = fs.StringLong("script", photo.DefaultScriptPath, "Script launched after each batch")
		shell        = fs.StringLong("shell", photo.DefaultShell, "Interpreter used to launch the script")
		detectorType = fs.StringEnumLong("detector", "QR detector: 'zxing', 'gemini' or 'ollama'", "zxing", "gemini", "ollama")
		geminiKey    = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel  = fs.StringLong("gemini-model", "gemini-2.5-flash", "Google Gemini model name")
		ollamaURL    = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel  = fs.StringLong("ollama-model", "qwen2.5vl", "Ollama model name (e.g., qwen2.5vl, llava:1.6, minicpm-v)")
		concurrency  = fs.IntLong("concurrency", runtime.NumCPU(), "Images analyzed at once (1 processes strictly in order)")
		maxImages    = fs.IntLong("max-images", photo.DefaultMaxImages, "Maximum images per uploaded batch")
		noDispatch   = fs.BoolLong("no-dispatch", "Skip writing the output file and launching the script")
		authUser     = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass     = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		logLevel     = fs.StringEnumLong("log-level", "Log level: debug, info, warn or error", "info", "debug", "warn", "error")
		logFormat    = fs.StringEnumLong("log-format", "Log format: text or json", "text", "json")
		showVersion  = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("PHOTO_METADATA"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		return 0
	}

	slog.SetDefault(logging.New(*logLevel, *logFormat))

	detector, err := newDetector(*detectorType, *geminiKey, *geminiModel, *ollamaURL, *ollamaModel)
	if err != nil {
		slog.Error("Failed to initialize detector", "detector", *detectorType, "error", err)
		return 1
	}
	scanner := scanning.NewBarcodeScanner(detector)
	defer scanner.Close()

	orchestrator := photo.NewOrchestrator(photo.NewAnalyzer(scanner), *concurrency)

	dispatcher, err := photo.NewDispatcher(photo.DispatchConfig{
		OutputPath: *outputPath,
		ScriptPath: *scriptPath,
		Shell:      *shell,
	})
	if err != nil {
		slog.Error("Failed to initialize dispatcher", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if args := fs.GetArgs(); len(args) > 0 {
		return runOnce(ctx, orchestrator, dispatcher, !*noDispatch, args)
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := photo.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		return 1
	}
	defer db.Close()

	service := photo.NewService(orchestrator, db, dispatcher, !*noDispatch)

	basicAuth := photo.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}
	server := photo.NewServer(service, basicAuth, *maxImages)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start(addr)
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr), "detector", *detectorType)
	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	select {
	case err := <-serverErr:
		slog.Error("Server error", "error", err)
		return 1
	case <-ctx.Done():
	}
	slog.Info("Shutting down...")
	return 0
}

// newDetector builds the QR detector backend named by kind
func newDetector(kind, geminiKey, geminiModel, ollamaURL, ollamaModel string) (scanning.Detector, error) {
	switch kind {
	case "zxing":
		slog.Info("Initializing zxing detector...")
		return scanning.NewZXing(), nil
	case "gemini":
		apiKey := geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini detector...", "model", geminiModel)
		return scanning.NewGemini(apiKey, geminiModel)
	case "ollama":
		slog.Info("Initializing Ollama detector...", "url", ollamaURL, "model", ollamaModel)
		return scanning.NewOllama(ollamaURL, ollamaModel)
	default:
		return nil, fmt.Errorf("invalid detector type %q, valid: zxing, gemini or ollama", kind)
	}
}

// runOnce analyzes the named files, prints the document and dispatches it.
// A document that cannot be serialized is reported in its place and never
// dispatched.
func runOnce(ctx context.Context, orchestrator *photo.Orchestrator, dispatcher *photo.Dispatcher, dispatch bool, paths []string) int {
	sources := make([]photo.Source, 0, len(paths))
	for _, p := range paths {
		sources = append(sources, photo.FileSource{Path: p})
	}

	records, summary, err := orchestrator.Run(ctx, sources)
	if err != nil {
		slog.Error("Batch interrupted", "error", err)
		return 1
	}
	slog.Info("Analyzed batch", "images", summary.Loaded, "skipped", summary.Skipped)

	doc, err := photo.Serialize(records)
	if err != nil {
		fmt.Println(photo.Render(records))
		return 1
	}
	fmt.Println(string(doc))

	if dispatch {
		dispatcher.Dispatch(ctx, doc)
	}
	return 0
}
