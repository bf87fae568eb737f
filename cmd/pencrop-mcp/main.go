package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ironsheep/pencrop-mcp/internal/config"
	"github.com/ironsheep/pencrop-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func run() error {
	var args cliArgs
	cliCtx := kong.Parse(
		&args,
		kong.Name("pencrop-mcp"),
		kong.Description("MCP server for cropping and transcribing handwriting photos.\n\n"+
			"Communicates via MCP protocol over stdin/stdout. Logs go to stderr."),
		kong.UsageOnError(),
		kong.Vars{
			"version": fmt.Sprintf("pencrop-mcp %s (built %s, commit %s)", Version, BuildTime, GitCommit),
		},
	)
	return cliCtx.Run()
}

type cliArgs struct {
	Version kong.VersionFlag `short:"v" help:"Print version information and exit"`

	LogLevel    string `help:"Log level (debug, info, warn, error)" default:"info" env:"PENCROP_LOG_LEVEL"`
	LogFormat   string `help:"Log format" enum:"console,json" default:"console" env:"PENCROP_LOG_FORMAT"`
	Language    string `help:"Default Tesseract language" default:"eng" env:"PENCROP_LANGUAGE"`
	BorderColor string `help:"Crop outline color in previews" default:"#ffffff" env:"PENCROP_BORDER_COLOR"`
	BorderWidth int    `help:"Crop outline width in previews" default:"2" env:"PENCROP_BORDER_WIDTH"`
	DimOutside  bool   `help:"Shade the preview outside the crop" env:"PENCROP_DIM_OUTSIDE"`
	MaxSessions int    `help:"Maximum number of open crop sessions" default:"16" env:"PENCROP_MAX_SESSIONS"`
	Enhance     bool   `help:"Enhance handwriting before OCR" default:"true" negatable:"" env:"PENCROP_ENHANCE"`
}

func (a *cliArgs) config() config.Config {
	return config.Config{
		LogLevel:    a.LogLevel,
		LogFormat:   a.LogFormat,
		Language:    a.Language,
		BorderColor: a.BorderColor,
		BorderWidth: a.BorderWidth,
		DimOutside:  a.DimOutside,
		MaxSessions: a.MaxSessions,
		Enhance:     a.Enhance,
	}
}

func (a *cliArgs) Run() error {
	cfg := a.config()
	if err := cfg.Validate(); err != nil {
		return err
	}

	// stdout is reserved for the MCP protocol
	logger := cfg.NewLogger(os.Stderr)
	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info().
		Str("version", Version).
		Str("commit", GitCommit).
		Int("max_sessions", cfg.MaxSessions).
		Msg("pencrop-mcp starting")

	server.Version = Version
	srv := server.New(cfg, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
