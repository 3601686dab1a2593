package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/BTreeMap/MoodPipe/internal/api"
	"github.com/BTreeMap/MoodPipe/internal/flow"
	"github.com/BTreeMap/MoodPipe/internal/genai"
	"github.com/BTreeMap/MoodPipe/internal/lockfile"
	"github.com/BTreeMap/MoodPipe/internal/metrics"
	"github.com/BTreeMap/MoodPipe/internal/responses"
	"github.com/BTreeMap/MoodPipe/internal/riddle"
	"github.com/BTreeMap/MoodPipe/internal/store"
	"github.com/BTreeMap/MoodPipe/internal/util"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

// Default configuration constants
const (
	// DefaultStateDir is the default directory for MoodPipe state data
	DefaultStateDir = "/var/lib/moodpipe"
	// DefaultLogFileName is the default diagnostic log path under the state directory
	DefaultLogFileName = "logs/user_state.log"
)

func main() {
	// Initialize structured logger
	initializeLogger()

	// Load environment configuration
	config := loadEnvironmentConfig()

	// Parse command line flags
	flags := parseCommandLineFlags(config, flag.CommandLine, os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Bootstrapping MoodPipe with configured modules")
	if err := run(ctx, flags); err != nil {
		slog.Error("MoodPipe failed to run", "error", err)
		os.Exit(1)
	}
	slog.Info("MoodPipe exited successfully")
}

// Config holds environment configuration
type Config struct {
	StateDir       string
	APIAddr        string
	OpenAIKey      string
	OpenAIModel    string
	GenAITimeout   time.Duration
	RiddleKey      string
	RiddleURL      string
	DiagnosticDSN  string
	ResponsesFile  string
	EnableRephrase bool
}

// Flags holds command line flag values
type Flags struct {
	stateDir       *string
	apiAddr        *string
	openaiKey      *string
	openaiModel    *string
	genaiTimeout   *time.Duration
	riddleKey      *string
	riddleURL      *string
	diagnosticDSN  *string
	responsesFile  *string
	enableRephrase *bool
}

// initializeLogger sets up structured logging with debug level
func initializeLogger() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
}

// loadEnvironmentConfig loads configuration from environment variables and .env file
func loadEnvironmentConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	config := Config{
		StateDir:       os.Getenv("MOODPIPE_STATE_DIR"),
		APIAddr:        os.Getenv("API_ADDR"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:    os.Getenv("OPENAI_MODEL"),
		GenAITimeout:   util.ParseDurationEnv("GENAI_TIMEOUT", flow.DefaultGenerationTimeout),
		RiddleKey:      os.Getenv("API_NINJAS_KEY"),
		RiddleURL:      os.Getenv("RIDDLE_API_URL"),
		DiagnosticDSN:  os.Getenv("DIAGNOSTIC_LOG_DSN"),
		ResponsesFile:  os.Getenv("RESPONSES_FILE"),
		EnableRephrase: util.ParseBoolEnv("ENABLE_REPHRASE", false),
	}

	// Set default state directory if not specified
	if config.StateDir == "" {
		config.StateDir = DefaultStateDir
		slog.Debug("No MOODPIPE_STATE_DIR set, using default", "default_state_dir", config.StateDir)
	}
	if config.RiddleURL == "" {
		config.RiddleURL = riddle.DefaultURL
	}

	slog.Debug("environment variables loaded",
		"MOODPIPE_STATE_DIR", config.StateDir,
		"API_ADDR", config.APIAddr,
		"OPENAI_API_KEY_SET", config.OpenAIKey != "",
		"OPENAI_MODEL", config.OpenAIModel,
		"GENAI_TIMEOUT", config.GenAITimeout,
		"API_NINJAS_KEY_SET", config.RiddleKey != "",
		"RIDDLE_API_URL", config.RiddleURL,
		"DIAGNOSTIC_LOG_DSN_SET", config.DiagnosticDSN != "",
		"RESPONSES_FILE", config.ResponsesFile,
		"ENABLE_REPHRASE", config.EnableRephrase)

	return config
}

// parseCommandLineFlags parses command line arguments with environment defaults
func parseCommandLineFlags(config Config, fs *flag.FlagSet, args []string) Flags {
	flags := Flags{
		stateDir:       fs.String("state-dir", config.StateDir, "state directory for MoodPipe data (overrides $MOODPIPE_STATE_DIR)"),
		apiAddr:        fs.String("api-addr", config.APIAddr, "API server address (overrides $API_ADDR)"),
		openaiKey:      fs.String("openai-api-key", config.OpenAIKey, "OpenAI API key (overrides $OPENAI_API_KEY)"),
		openaiModel:    fs.String("openai-model", config.OpenAIModel, "chat model for reframes (overrides $OPENAI_MODEL)"),
		genaiTimeout:   fs.Duration("genai-timeout", config.GenAITimeout, "deadline for one generated reframe (overrides $GENAI_TIMEOUT)"),
		riddleKey:      fs.String("riddle-api-key", config.RiddleKey, "API Ninjas key for riddles (overrides $API_NINJAS_KEY)"),
		riddleURL:      fs.String("riddle-api-url", config.RiddleURL, "riddle endpoint (overrides $RIDDLE_API_URL)"),
		diagnosticDSN:  fs.String("diagnostic-log-dsn", config.DiagnosticDSN, "postgres URL, sqlite: path or file path for the diagnostic log (overrides $DIAGNOSTIC_LOG_DSN)"),
		responsesFile:  fs.String("responses-file", config.ResponsesFile, "YAML response catalog replacing the built-in one (overrides $RESPONSES_FILE)"),
		enableRephrase: fs.Bool("enable-rephrase", config.EnableRephrase, "rephrase templated replies with the chat model (overrides $ENABLE_REPHRASE)"),
	}

	if err := fs.Parse(args); err != nil {
		slog.Warn("flag parsing failed", "error", err)
	}

	slog.Debug("flags parsed",
		"stateDir", *flags.stateDir,
		"apiAddr", *flags.apiAddr,
		"openaiKeySet", *flags.openaiKey != "",
		"openaiModel", *flags.openaiModel,
		"genaiTimeout", *flags.genaiTimeout,
		"riddleKeySet", *flags.riddleKey != "",
		"riddleURL", *flags.riddleURL,
		"diagnosticDSN_set", *flags.diagnosticDSN != "",
		"responsesFile", *flags.responsesFile,
		"enableRephrase", *flags.enableRephrase)

	return flags
}

// diagnosticDSN returns the configured DSN or the default log file under the state directory.
func diagnosticDSN(flags Flags) string {
	if *flags.diagnosticDSN != "" {
		return *flags.diagnosticDSN
	}
	return filepath.Join(*flags.stateDir, DefaultLogFileName)
}

// loadCatalog returns the configured response catalog or the built-in one.
func loadCatalog(flags Flags) (*responses.Catalog, error) {
	if *flags.responsesFile != "" {
		slog.Debug("Loading response catalog from file", "path", *flags.responsesFile)
		return responses.LoadCatalogFile(*flags.responsesFile)
	}
	return responses.DefaultCatalog()
}

// buildGenAIOptions constructs GenAI configuration options
func buildGenAIOptions(flags Flags) []genai.Option {
	var genaiOpts []genai.Option
	if *flags.openaiKey != "" {
		genaiOpts = append(genaiOpts, genai.WithAPIKey(*flags.openaiKey))
	}
	if *flags.openaiModel != "" {
		genaiOpts = append(genaiOpts, genai.WithModel(*flags.openaiModel))
	}
	return genaiOpts
}

// buildRiddleOptions constructs riddle source options
func buildRiddleOptions(flags Flags) []riddle.Option {
	return []riddle.Option{
		riddle.WithAPIKey(*flags.riddleKey),
		riddle.WithURL(*flags.riddleURL),
	}
}

// buildAPIOptions constructs API server configuration options
func buildAPIOptions(flags Flags) []api.Option {
	var apiOpts []api.Option
	if *flags.apiAddr != "" {
		apiOpts = append(apiOpts, api.WithAddr(*flags.apiAddr))
	}
	return apiOpts
}

// run wires the modules together and serves until ctx is cancelled.
func run(ctx context.Context, flags Flags) error {
	catalog, err := loadCatalog(flags)
	if err != nil {
		return fmt.Errorf("failed to load response catalog: %w", err)
	}

	collector := metrics.NewCollector(metrics.DefaultNamespace)
	stepOpts := []flow.StepsOption{
		flow.WithRiddleSource(riddle.NewHTTPSource(buildRiddleOptions(flags)...)),
		flow.WithGenerationTimeout(*flags.genaiTimeout),
		flow.WithObserver(collector),
	}
	var rendererOpts []responses.RendererOption

	client, err := genai.NewClient(buildGenAIOptions(flags)...)
	switch {
	case err == nil:
		stepOpts = append(stepOpts, flow.WithReframeGenerator(genai.NewReframer(client)))
		if *flags.enableRephrase {
			rendererOpts = append(rendererOpts, responses.WithRephraser(genai.NewRephraser(client)))
		}
	case *flags.openaiKey == "":
		slog.Info("No OpenAI API key configured, reframes use the fixed fallback")
	default:
		return fmt.Errorf("failed to create GenAI client: %w", err)
	}

	dsn := diagnosticDSN(flags)
	dsnType := store.DetectDSNType(dsn)
	slog.Debug("Opening diagnostic log", "dsn_type", dsnType)
	if dsnType != store.DSNTypePostgres {
		lock, err := lockfile.Acquire(*flags.stateDir)
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				slog.Warn("Failed to release state directory lock", "error", err)
			}
		}()
	}
	backing, err := store.OpenDiagnosticLog(dsn)
	if err != nil {
		return fmt.Errorf("failed to open diagnostic log: %w", err)
	}
	diagnostics := store.NewAsyncDiagnosticLog(backing, store.DefaultQueueSize)
	defer func() {
		if err := diagnostics.Close(); err != nil {
			slog.Warn("Failed to close diagnostic log", "error", err)
		}
	}()

	orch := flow.NewOrchestrator(flow.NewSteps(stepOpts...), flow.WithDiagnosticLog(diagnostics))
	apiOpts := append(buildAPIOptions(flags), api.WithMetrics(collector), api.WithDiagnostics(diagnostics))
	server := api.NewServer(orch, responses.NewRenderer(catalog, rendererOpts...), apiOpts...)

	return serveUntilDone(ctx, server.Run, diagnostics.Run)
}

// serveUntilDone runs serve and writer until ctx is cancelled or serve fails.
// The writer is stopped only after serve has returned.
func serveUntilDone(ctx context.Context, serve, writer func(context.Context) error) error {
	writerCtx, stopWriter := context.WithCancel(context.Background())
	defer stopWriter()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return writer(writerCtx) })
	g.Go(func() error {
		defer stopWriter()
		return serve(gctx)
	})
	return g.Wait()
}
