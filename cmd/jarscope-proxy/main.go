// jarscope-proxy is the caller-facing MCP server. It translates each tool
// call into one HTTP request to the execution gateway and relays the
// response or error back through the MCP envelope.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jarscope/jarscope/internal/config"
	"github.com/jarscope/jarscope/internal/gatewayclient"
	"github.com/jarscope/jarscope/internal/proxy"
)

// CLI flags parsed from command line.
type cliFlags struct {
	Addr      string
	Gateway   string
	ConfigDir string
	Stdio     bool
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

	fs := flag.NewFlagSet("jarscope-proxy", flag.ContinueOnError)
	fs.StringVar(&flags.Addr, "addr", "", "listen address (overrides PROXY_HOST/PROXY_PORT)")
	fs.StringVar(&flags.Gateway, "gateway", "", "gateway base URL (overrides REMOTE_SERVER_URL)")
	fs.StringVar(&flags.ConfigDir, "config-dir", ".", "directory containing jarscope.yml")
	fs.BoolVar(&flags.Stdio, "stdio", false, "serve MCP over stdio instead of HTTP")
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

	cfg, err := config.LoadProxy(flags.ConfigDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flags.Addr != "" {
		cfg.Addr = flags.Addr
	}
	if flags.Gateway != "" {
		cfg.GatewayURL = flags.Gateway
	}

	client := gatewayclient.New(cfg.GatewayURL, gatewayclient.WithTimeout(cfg.HTTPTimeout))
	svc := proxy.NewService(client, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flags.Stdio {
		log.Info("serving MCP over stdio", "gateway", cfg.GatewayURL)
		return proxy.RunStdio(ctx, proxy.NewMCPServer(svc))
	}

	log.Info("proxy listening", "addr", cfg.Addr, "gateway", cfg.GatewayURL)
	return proxy.RunHTTP(ctx, svc, cfg.Addr)
}
