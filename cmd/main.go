// Package main is the entry point for the strm gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/embyfast/strm-gateway/internal/config"
	"github.com/embyfast/strm-gateway/internal/gateway"
	"github.com/embyfast/strm-gateway/internal/monitoring"
)

// ANSI color codes
const (
	accentBlue = "\033[38;2;52;120;246m"
	bold       = "\033[1m"
	reset      = "\033[0m"
)

// ASCII banner for startup
const banner = `
  ███████╗████████╗██████╗ ███╗   ███╗     ██████╗ ██╗    ██╗
  ██╔════╝╚══██╔══╝██╔══██╗████╗ ████║    ██╔════╝ ██║    ██║
  ███████╗   ██║   ██████╔╝██╔████╔██║    ██║  ███╗██║ █╗ ██║
  ╚════██║   ██║   ██╔══██╗██║╚██╔╝██║    ██║   ██║██║███╗██║
  ███████║   ██║   ██║  ██║██║ ╚═╝ ██║    ╚██████╔╝╚███╔███╔╝
  ╚══════╝   ╚═╝   ╚═╝  ╚═╝╚═╝     ╚═╝     ╚═════╝  ╚══╝╚══╝
`

func printBanner() {
	fmt.Print(accentBlue + bold + banner + reset + "\n")
}

// loadEnvFiles loads .env from standard locations
func loadEnvFiles() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		_ = godotenv.Load()
		return
	}

	// Try loading from ~/.config/strm-gateway/.env first
	configEnv := filepath.Join(homeDir, ".config", "strm-gateway", ".env")
	if _, err := os.Stat(configEnv); err == nil {
		_ = godotenv.Load(configEnv)
	}

	// Also load local .env (can override)
	_ = godotenv.Load()
}

func main() {
	// Handle subcommands first (before flags)
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve", "start":
			runGatewayServer(os.Args[2:])
			return
		case "version", "-v", "--version":
			printVersion()
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
	}

	// Default: run the proxy
	runGatewayServer(os.Args[1:])
}

// resolveServeConfig resolves the config path for the serve command.
// Checks: user flag -> filesystem locations.
func resolveServeConfig(userConfig string) (string, error) {
	if userConfig != "" {
		if _, err := os.Stat(userConfig); err != nil {
			return "", fmt.Errorf("config file not found: %s", userConfig)
		}
		return userConfig, nil
	}

	homeDir, _ := os.UserHomeDir()

	searchPaths := []string{}
	if homeDir != "" {
		searchPaths = append(searchPaths,
			filepath.Join(homeDir, ".config", "strm-gateway", "config.yaml"),
		)
	}
	searchPaths = append(searchPaths, "configs/config.yaml", "config.yaml")

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no config file found. Specify --config path")
}

// runGatewayServer starts the proxy server
func runGatewayServer(args []string) {
	// Load .env files from standard locations
	loadEnvFiles()

	// Parse flags
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	debug := fs.Bool("debug", false, "enable debug logging")
	noBanner := fs.Bool("no-banner", false, "suppress startup banner")
	_ = fs.Parse(args) // ExitOnError handles errors

	if !*noBanner {
		printBanner()
	}

	configSource, err := resolveServeConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(configSource)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration from %s: %v\n", configSource, err)
		os.Exit(1)
	}

	setupLogging(cfg, *debug)

	log.Info().
		Str("version", Version).
		Str("config", configSource).
		Msg("strm gateway starting")

	log.Info().
		Int("port", cfg.Server.Port).
		Str("upstream", cfg.Upstream.BaseURL).
		Str("cache", cfg.Cache.Type).
		Dur("cache_ttl", cfg.Cache.TTL).
		Msg("configuration loaded")

	gw, err := gateway.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gateway")
	}

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := gw.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("gateway shutdown error")
		}
	}()

	if err := gw.Start(); err != nil && err.Error() != "http: Server closed" {
		log.Fatal().Err(err).Msg("gateway error")
	}

	log.Info().Msg("strm gateway stopped")
}

// setupLogging configures the global zerolog logger from config.
// The --debug flag overrides the configured level.
func setupLogging(cfg *config.Config, debug bool) {
	loggerCfg := cfg.LoggerConfig()
	if debug {
		loggerCfg.Level = "debug"
	}
	monitoring.Global(loggerCfg)

	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// printHelp prints usage information
func printHelp() {
	printBanner()
	fmt.Println("strm-gateway - playback-info bypass proxy for strm libraries")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  strm-gateway [command] [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  (none)       Start the proxy (same as serve)")
	fmt.Println("  serve        Start the proxy server")
	fmt.Println("  version      Print version information")
	fmt.Println("  help         Show this help message")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config FILE    Config file (default: ~/.config/strm-gateway/config.yaml)")
	fmt.Println("  --debug          Enable debug logging")
	fmt.Println("  --no-banner      Suppress startup banner")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  strm-gateway serve --config configs/config.yaml")
	fmt.Println("  strm-gateway --debug")
	fmt.Println()
	fmt.Println("Point your media client at the gateway port; the upstream")
	fmt.Println("server address and API key come from the config file.")
}
