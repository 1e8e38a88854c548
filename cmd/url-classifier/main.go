package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mikey/url-guard/internal/adapters/filter"
	"github.com/mikey/url-guard/internal/core"
	"github.com/mikey/url-guard/internal/di"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	exitCode := 0
	if err := container.Invoke(func(logger *zap.Logger, engine *core.Engine, cacheRepo core.CacheRepository) error {
		code, err := run(logger, flags, engine)
		exitCode = code
		if stopper, ok := cacheRepo.(interface{ Stop() }); ok {
			stopper.Stop()
		}
		return err
	}); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}

// run classifies the URLs and returns the process exit code: 0 when every URL
// is benign, 2 when at least one is malicious, 1 when any failed to classify
func run(logger *zap.Logger, flags *di.CLIFlags, engine *core.Engine) (int, error) {
	defer logger.Sync()
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Error("Failed to close oracle", zap.Error(err))
		}
	}()

	cli, err := filter.NewCliFilter(engine, logger, os.Stdout, flags.Verbose, flags.JSONOutput)
	if err != nil {
		return 1, err
	}

	var input io.Reader
	switch {
	case len(flags.URLs) > 0:
		input = strings.NewReader(strings.Join(flags.URLs, "\n"))
	case flags.InputFile != "":
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return 1, fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		input = file
		logger.Info("Reading URLs from file", zap.String("file", flags.InputFile))
	default:
		input = os.Stdin
		logger.Info("Reading URLs from stdin")
	}

	malicious, failed, err := cli.ProcessReader(context.Background(), input)
	if err != nil {
		return 1, err
	}

	switch {
	case failed > 0:
		return 1, nil
	case malicious > 0:
		return 2, nil
	default:
		return 0, nil
	}
}
