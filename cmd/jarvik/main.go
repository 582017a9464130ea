package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

type CLI struct {
	Serve     ServeCommand     `cmd:"serve" help:"Start the gateway."`
	Login     LoginCommand     `cmd:"login" help:"Check credentials with the context service and save them."`
	Logout    LogoutCommand    `cmd:"logout" help:"Forget the saved credentials."`
	Whoami    WhoamiCommand    `cmd:"whoami" help:"Show the user the context service knows you as."`
	Models    ModelsCommand    `cmd:"models" help:"List the models available to the gateway."`
	SetModel  SetModelCommand  `cmd:"set-model" help:"Choose the model used for ask and code, or auto to let the gateway pick."`
	SetMemory SetMemoryCommand `cmd:"set-memory" help:"Allow or prevent the context service from remembering queries."`
	Ask       AskCommand       `cmd:"ask" help:"Ask a question."`
	Code      CodeCommand      `cmd:"code" help:"Ask for help with some code."`
	Knowledge KnowledgeCommand `cmd:"knowledge" help:"Search the context service's knowledge base."`
	Crawl     CrawlCommand     `cmd:"crawl" help:"Ask the context service to crawl a URL."`
	Version   VersionCommand   `cmd:"version" help:"Print the version."`
}

func main() {
	var cli CLI
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	kctx := kong.Parse(&cli, kong.UsageOnError(), kong.BindTo(ctx, (*context.Context)(nil)))
	if err := kctx.Run(); err != nil {
		log := getLogger("error")
		log.Error("error", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}

func getLogger(level string) *slog.Logger {
	ll := slog.LevelInfo
	switch level {
	case "debug":
		ll = slog.LevelDebug
	case "info":
		ll = slog.LevelInfo
	case "warn":
		ll = slog.LevelWarn
	case "error":
		ll = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: ll,
	}))
}
