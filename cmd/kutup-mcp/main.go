package main

import (
	"fmt"
	"log"
	"os"

	"github.com/uygaratabay1015-boop/kutupp/internal/config"
	"github.com/uygaratabay1015-boop/kutupp/internal/history"
	"github.com/uygaratabay1015-boop/kutupp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := ""

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("kutup-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("kutup-mcp - MCP server for estimating latitude from photographs of Polaris")
			fmt.Println()
			fmt.Println("Usage: kutup-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --config PATH    YAML configuration file")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  KUTUP_CONFIG=PATH        Configuration file when --config is not given")
			fmt.Println("  KUTUP_LOG_LEVEL=debug    Enable debug logging")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		case "--config":
			if len(os.Args) < 3 {
				fmt.Fprintln(os.Stderr, "--config requires a path")
				os.Exit(2)
			}
			configPath = os.Args[2]
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	debug := os.Getenv("KUTUP_LOG_LEVEL") == "debug"
	if debug {
		log.Printf("Kutup MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	path := config.Resolve(configPath)
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if debug {
		if path == "" {
			log.Printf("Using built-in configuration")
		} else {
			log.Printf("Loaded configuration from %s", path)
		}
	}

	var store *history.Store
	if cfg.History.Path != "" {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			log.Fatalf("History error: %v", err)
		}
		defer store.Close()
		if debug {
			log.Printf("Recording observations to %s", cfg.History.Path)
		}
	}

	server.Version = Version
	srv := server.New(cfg, store)
	if err := srv.Run(); err != nil {
		log.Printf("Server error: %v", err)
		if store != nil {
			store.Close()
		}
		os.Exit(1)
	}
}
