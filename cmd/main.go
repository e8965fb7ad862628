package main

import (
	"context"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/bbruceyuan/vmarker/internal/services"
	"github.com/bbruceyuan/vmarker/internal/shared"
)

// EnvConfigPath overrides the default config.toml location.
const EnvConfigPath = "VMARKER_CONFIG"

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	if p := os.Getenv(EnvConfigPath); p != "" {
		configPath = p
	}

	config, err := shared.ResolveConfig(configPath)
	if err != nil {
		logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		config = shared.DefaultConfig()
		if err := config.ApplyEnv(); err != nil {
			logger.Warn("ignoring environment overrides", "error", err)
		}
	}

	httpClient := &http.Client{Timeout: config.API.Timeout()}
	api := services.NewAPIService(config.API.BaseURL, httpClient).
		WithLogger(logger).
		WithRateLimit(config.API.RequestsPerSecond)

	if p := config.API.HeadersPath; p != "" {
		if headers, err := shared.LoadExtraHeaders(p); err != nil {
			logger.Warn("ignoring extra headers", "path", p, "error", err)
		} else {
			api.WithHeaders(headers)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		API:        api,
		HTTPClient: httpClient,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:    "vmarker",
		Usage:   "Chapter bars, progress bars, show notes and subtitle polish from the terminal",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("debug") {
				shared.SetLogLevel(runner.logger, log.DebugLevel)
			}
			runner.bootstrap(ctx)
			return ctx, nil
		},
		After: func(ctx context.Context, cmd *cli.Command) error {
			runner.shutdown()
			return nil
		},
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		runner.shutdown()
		logger.Fatal(shared.UserMessage(err), "error", err)
	}
}
