// presetchat - preset-driven chat gateway
// Entry point: flag handling plus the serve command.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"presetchat/internal/api"
	"presetchat/internal/domain/chat"
	"presetchat/internal/domain/preset"
	"presetchat/internal/infra/config"
	"presetchat/internal/infra/eventbus"
	"presetchat/internal/infra/llm"
	"presetchat/internal/infra/sqlite"
	"presetchat/internal/server"
	"presetchat/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("presetchat", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")
	configPath := fs.String("config", "presetchat.yaml", "Path to config file")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	if *showHelp {
		printHelp(out)
		return 0
	}

	if fs.Arg(0) == "serve" {
		if err := serve(*configPath); err != nil {
			fmt.Fprintf(out, "presetchat: %v\n", err) //nolint:errcheck
			return 1
		}
		return 0
	}

	// No command: print version.
	fmt.Fprintln(out, version.String()) //nolint:errcheck
	return 0
}

func serve(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := sqlite.MigrateUp(db); err != nil {
		db.Close() //nolint:errcheck
		return fmt.Errorf("run migrations: %w", err)
	}

	bus := eventbus.New()
	conversation := chat.NewConversation()

	store, err := preset.NewStore(db, bus, conversation)
	if err != nil {
		db.Close() //nolint:errcheck
		return fmt.Errorf("load presets: %w", err)
	}

	provider := llm.NewOpenRouterProvider(cfg.ProviderBaseURL, cfg.ProviderAPIKey, cfg.DefaultModel)
	router := llm.NewRouter(map[string]llm.StreamProvider{"openrouter": provider}, "openrouter")
	policy := chat.SuffixPolicy{Suffix: cfg.AllowedModelSuffix}
	chatService := chat.NewChatService(router, policy, bus, cfg.RequestTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// History is written off the request path, fed by the event bus.
	recorder := chat.NewHistoryRecorder(db)
	go recorder.Start(ctx, bus)

	handler := api.NewRouter(api.Deps{
		Store:        store,
		Transcript:   conversation,
		ChatService:  chatService,
		Provider:     provider,
		DefaultModel: cfg.DefaultModel,
	})

	srvCfg := server.DefaultConfig()
	srvCfg.Host = cfg.Host
	srvCfg.Port = cfg.Port
	srv := server.NewServer(db, handler, srvCfg)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func printHelp(out io.Writer) {
	helpText := `presetchat - preset-driven chat gateway

Usage:
  presetchat [options] [command]

Options:
  --version          Show version information
  --config <path>    Path to YAML config file (default: presetchat.yaml)
  --help             Show this help message

Commands:
  serve        Start the HTTP server (default)

Examples:
  presetchat --version
  presetchat serve
  presetchat --config /etc/presetchat.yaml serve`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
