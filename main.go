package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/recrsn/mcpchat/internal/catalog"
	"github.com/recrsn/mcpchat/internal/config"
	"github.com/recrsn/mcpchat/internal/llm"
	"github.com/recrsn/mcpchat/internal/logging"
	"github.com/recrsn/mcpchat/internal/permission"
	"github.com/recrsn/mcpchat/internal/platform"
	"github.com/recrsn/mcpchat/internal/prompts"
	"github.com/recrsn/mcpchat/internal/session"
	"github.com/recrsn/mcpchat/internal/toolhost"
	"github.com/recrsn/mcpchat/internal/ui"
	"github.com/spf13/pflag"
)

var version = "dev"

func main() {
	plain := pflag.Bool("plain", false, "use a plain line-oriented interface without colors")
	showVersion := pflag.BoolP("version", "v", false, "print the version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println("mcpchat", version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *plain); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, plain bool) error {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, logCloser, err := logging.Open(cfg.Log)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	var apiLogger llm.APILogger
	if cfg.Log.APILog {
		dataDir, err := config.GetDataDir()
		if err != nil {
			return err
		}
		fileLogger := llm.NewAPILogger(dataDir)
		logger.Info("logging API interactions", "path", fileLogger.Path())
		apiLogger = fileLogger
	}

	backend, conn, err := llm.New(cfg.Provider, apiLogger)
	if err != nil {
		return fmt.Errorf("configuring model backend: %w", err)
	}

	toolhost.Version = version
	host := toolhost.NewClient(cfg.ToolHost, logger)
	defer host.Close()

	// the session outlives the catalog fetch, so connect under ctx
	if err := host.Connect(ctx); err != nil {
		return fmt.Errorf("cannot start without tools from %q: %w: %w", cfg.ToolHost.Command, catalog.ErrUnavailable, err)
	}
	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	cat, err := catalog.Fetch(fetchCtx, host)
	cancel()
	if err != nil {
		if errors.Is(err, catalog.ErrUnavailable) {
			return fmt.Errorf("cannot start without tools from %q: %w", cfg.ToolHost.Command, err)
		}
		return err
	}

	systemPrompt, err := prompts.RenderSystemPrompt(cfg.Session.SystemPrompt,
		prompts.NewPromptData(cat, platform.Detect(), time.Now()))
	if err != nil {
		return fmt.Errorf("rendering system prompt: %w", err)
	}

	// Create UI
	var userInterface ui.UserInterface
	if plain {
		userInterface = ui.NewPlainUI(os.Stdin, os.Stdout)
	} else {
		userInterface, err = ui.NewTraditionalUI(cfg.UI)
		if err != nil {
			return fmt.Errorf("creating UI: %w", err)
		}
	}
	defer userInterface.Close()

	userInterface.ShowHeader(conn, host.ServerName(), cat)

	chat := session.New(backend, cat, host, userInterface, session.Options{
		SystemPrompt:  systemPrompt,
		MaxToolRounds: cfg.Session.MaxToolRounds,
		Approver:      permission.NewManager(cfg.Permissions, userInterface),
		Logger:        logger,
	})

	err = chat.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
