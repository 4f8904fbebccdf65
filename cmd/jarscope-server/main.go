// jarscope-server is the execution gateway: it resolves Maven coordinates,
// locates classes inside the resulting jars, and decompiles them, exposing
// the pipeline over a REST surface for the protocol proxy.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jarscope/jarscope/internal/analyzer"
	"github.com/jarscope/jarscope/internal/config"
	"github.com/jarscope/jarscope/internal/decompiler"
	"github.com/jarscope/jarscope/internal/gateway"
	"github.com/jarscope/jarscope/internal/maven"
)

// CLI flags parsed from command line.
type cliFlags struct {
	Addr      string
	ConfigDir string
	Verbose   bool
	Version   bool
}

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var flags cliFlags

	fs := flag.NewFlagSet("jarscope-server", flag.ContinueOnError)
	fs.StringVar(&flags.Addr, "addr", "", "listen address (overrides SERVER_HOST/SERVER_PORT)")
	fs.StringVar(&flags.ConfigDir, "config-dir", ".", "directory containing jarscope.yml")
	fs.BoolVar(&flags.Verbose, "verbose", false, "enable debug logging")
	fs.BoolVar(&flags.Version, "version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if flags.Version {
		fmt.Println(version)
		return nil
	}

	level := slog.LevelInfo
	if flags.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)

	cfg, err := config.LoadServer(flags.ConfigDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flags.Addr != "" {
		cfg.Addr = flags.Addr
	}

	if err := os.MkdirAll(cfg.WorkRoot, 0o755); err != nil {
		return fmt.Errorf("create work root %s: %w", cfg.WorkRoot, err)
	}

	resolver := maven.NewResolver(cfg.MavenBin, cfg.ResolveTimeout, log)
	javap := decompiler.NewJavap(cfg.DecompilerBin, cfg.DecompileTimeout, log)
	pipeline := analyzer.New(resolver, javap, log,
		analyzer.WithWorkRoot(cfg.WorkRoot),
		analyzer.WithCacheSize(cfg.CacheSize),
		analyzer.WithDecompileParallelism(cfg.DecompileWorkers),
	)

	server := gateway.NewServer(pipeline, log,
		gateway.WithWorkRoot(cfg.WorkRoot),
		gateway.WithVersion(version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx, cfg.Addr); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	log.Info("gateway listening", "addr", cfg.Addr, "workRoot", cfg.WorkRoot)

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Stop(shutdownCtx)
}
