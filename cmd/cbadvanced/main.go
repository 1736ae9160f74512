// Command cbadvanced is a small operator tool for the Coinbase Advanced Trade
// API: it reads the exchange clock, balances, products, candles and order
// books, and streams WebSocket channels.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/logrusorgru/aurora"

	"github.com/coachpo/coinbase-advanced/config"
	"github.com/coachpo/coinbase-advanced/internal/observability"
	"github.com/coachpo/coinbase-advanced/lib/telemetry"
	"github.com/coachpo/coinbase-advanced/pkg/rest"
)

const (
	loggerPrefix             = "cbadvanced "
	defaultEnvFile           = ".env"
	telemetryShutdownTimeout = 5 * time.Second
)

func main() {
	flags := parseFlags()
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(os.Stdout, loggerPrefix, log.LstdFlags|log.Lmicroseconds)

	if err := godotenv.Load(flags.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Fatalf("load env file %s: %v", flags.envFile, err)
	}

	cfg, loadedFromFile, err := config.LoadOrDefault(ctx, flags.configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if !loadedFromFile {
		logger.Printf("configuration file not found, using environment and defaults")
	}

	observability.SetLogger(observability.NewLogrusLogger(cfg.Log).WithComponent("cbadvanced"))

	_, shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		logger.Fatalf("initialise telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancelShutdown()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Printf("shutdown telemetry: %v", err)
		}
	}()

	client, err := rest.New(rest.Options{Config: cfg})
	if err != nil {
		logger.Fatalf("build rest client: %v", err)
	}

	a := &app{
		cfg:    cfg,
		rest:   client,
		logger: logger,
		out:    os.Stdout,
		au:     aurora.NewAurora(!flags.noColor),
	}
	if err := a.run(ctx, flag.Args()); err != nil {
		logger.Printf("%v", err)
		cancel()
		os.Exit(1)
	}
}

type cliFlags struct {
	configPath string
	envFile    string
	noColor    bool
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "", "Path to a YAML configuration file (default: $COINBASE_CONFIG)")
	flag.StringVar(&f.envFile, "env-file", defaultEnvFile, "Dotenv file loaded before reading the environment")
	flag.BoolVar(&f.noColor, "no-color", false, "Disable coloured output")
	flag.Usage = func() {
		out := flag.CommandLine.Output()
		_, _ = fmt.Fprintf(out, "usage: cbadvanced [flags] <command> [command flags]\n\ncommands:\n")
		for _, c := range commands {
			_, _ = fmt.Fprintf(out, "  %-9s %s\n", c.name, c.summary)
		}
		_, _ = fmt.Fprintf(out, "\nflags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	return f
}

// app carries what every command needs.
type app struct {
	cfg    config.Settings
	rest   *rest.Client
	logger *log.Logger
	out    io.Writer
	au     aurora.Aurora
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("missing command (try -h)")
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(ctx, a, args[1:])
		}
	}
	return fmt.Errorf("unknown command %q", args[0])
}
