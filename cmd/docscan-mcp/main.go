package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/docscan-mcp/internal/config"
	"github.com/ironsheep/docscan-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle the bare version and help words; flags go through config.Load
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			printVersion()
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion()
		return
	}
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if Version != "dev" {
		cfg.Version = Version
	}

	if cfg.IsDebug() {
		log.Printf("Document Scan MCP Server v%s (built %s, commit %s)", cfg.Version, BuildTime, GitCommit)
		log.Printf("Configuration: %s", cfg)
	}

	srv, err := server.New(cfg, log.Default())
	if err != nil {
		log.Fatalf("Server setup error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Server error: %v", err)
	}
}

func printVersion() {
	fmt.Printf("docscan-mcp %s\n", Version)
	fmt.Printf("  Build time: %s\n", BuildTime)
	fmt.Printf("  Git commit: %s\n", GitCommit)
}

func printHelp() {
	fmt.Println("docscan-mcp - MCP server for document capture")
	fmt.Println()
	fmt.Println("Usage: docscan-mcp [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --loglevel string          Log level: debug, info, warn, error (default \"info\")")
	fmt.Println("  --config string            Path to a YAML configuration file")
	fmt.Println("  --max-width int            Maximum stored image width (default 1280)")
	fmt.Println("  --max-height int           Maximum stored image height (default 960)")
	fmt.Println("  --fill-color string        Background for pixels outside the photo (default \"#000000\")")
	fmt.Println("  --archive-limit int        ZIP size in bytes above which a warning is given")
	fmt.Println("  --quality-high int         JPEG quality for high-tier documents (default 90)")
	fmt.Println("  --quality-standard int     JPEG quality for standard documents (default 60)")
	fmt.Println("  --version, -v              Print version information")
	fmt.Println("  --help, -h                 Print this help message")
	fmt.Println()
	fmt.Println("Environment variables use the DOCSCAN_ prefix, e.g. DOCSCAN_LOGLEVEL=debug.")
	fmt.Println("A .env file in the working directory is loaded first.")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}
