package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"despesas/internal/cli"
)

func main() {
	// Load .env file for local development (ignore errors in production)
	_ = godotenv.Load()

	// The CLI prints results itself; keep log noise down to warnings.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	var c cli.CLI
	kctx := kong.Parse(&c,
		kong.Name("despesas"),
		kong.Description("Personal finance tracker with recurring obligations."),
		kong.UsageOnError(),
	)

	app, err := cli.NewApp(c.DB)
	kctx.FatalIfErrorf(err)
	defer app.Close()

	kctx.FatalIfErrorf(kctx.Run(app))
}
