package di

import (
	"flag"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/url-guard/internal/config"
	"github.com/mikey/url-guard/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Artifact flags
	Model     string
	BadFeed   string
	AllowList string
	Scaler    string
	Threshold string

	// Runtime flags
	SharedLibrary string
	NoCache       bool

	// Input and output flags
	InputFile  string
	Verbose    bool
	JSONLog    bool
	JSONOutput bool
	ConfigFile string

	// URLs are the positional arguments
	URLs []string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	flag.StringVar(&flags.Model, "model", "", "Path to the ONNX model")
	flag.StringVar(&flags.BadFeed, "bad-feed", "", "Path to the known-bad domain feed")
	flag.StringVar(&flags.AllowList, "allow-list", "", "Path to the allow-listed domains")
	flag.StringVar(&flags.Scaler, "scaler", "", "Path to the scaler parameters")
	flag.StringVar(&flags.Threshold, "threshold", "", "Path to the decision threshold record")

	flag.StringVar(&flags.SharedLibrary, "onnxruntime", "", "Path to the onnxruntime shared library")
	flag.BoolVar(&flags.NoCache, "no-cache", false, "Disable the verdict cache")

	flag.StringVar(&flags.InputFile, "file", "", "File with one URL per line (use stdin if no URLs are given)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.BoolVar(&flags.JSONOutput, "json", false, "Print verdicts as JSON lines")
	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file")

	flag.Parse()
	flags.URLs = flag.Args()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		cfg, err := config.Load(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		if used := cfg.GetViper().ConfigFileUsed(); used != "" {
			logger.Info("Loaded configuration from file", zap.String("file", used))
		}
		applyFlags(cfg, flags)
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := provideEngine(container); err != nil {
		return nil, err
	}

	return container, nil
}

// applyFlags overrides the configuration with the flags that were set
func applyFlags(cfg *config.Config, flags *CLIFlags) {
	cfg.Set("server.filter_type", "cli")
	cfg.Set("cli.verbose", flags.Verbose)
	cfg.Set("cli.json", flags.JSONOutput)

	overrides := map[string]string{
		"artifacts.model":          flags.Model,
		"artifacts.bad_feed":       flags.BadFeed,
		"artifacts.allow_list":     flags.AllowList,
		"artifacts.scaler":         flags.Scaler,
		"artifacts.threshold":      flags.Threshold,
		"onnx.shared_library_path": flags.SharedLibrary,
	}
	for key, value := range overrides {
		if value != "" {
			cfg.Set(key, value)
		}
	}

	if flags.NoCache {
		cfg.Set("cache.enabled", false)
	}
}
