package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/ironsheep/scalebar-mcp/internal/batch"
	"github.com/ironsheep/scalebar-mcp/internal/config"
	"github.com/ironsheep/scalebar-mcp/internal/overlay"
	"github.com/ironsheep/scalebar-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("scalebar-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage(os.Stdout)
			return
		case "process":
			os.Exit(runProcess(os.Args[2:], os.Stdout, os.Stderr))
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if os.Getenv(config.EnvLogLevel) == "debug" {
		log.Printf("Scalebar MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	if term.IsTerminal(int(os.Stdin.Fd())) {
		log.Printf("stdin is a terminal; this server expects MCP JSON-RPC, one request per line")
	}

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	srv, err := server.New(cfg, log.Default())
	if err != nil {
		log.Fatalf("Server error: %v", err)
	}
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "scalebar-mcp - MCP server that adds calibrated scale bars to micrographs")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  scalebar-mcp [options]                    Run the MCP server on stdin/stdout")
	fmt.Fprintln(w, "  scalebar-mcp process [flags] <image>...   Annotate images and write a zip archive")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Process flags:")
	fmt.Fprintln(w, "  -o <dir>         Output directory (default: new temporary directory)")
	fmt.Fprintln(w, "  -config <path>   YAML configuration file")
	fmt.Fprintln(w, "  -archive <name>  Zip file name, written inside -o (default processed_images.zip)")
	fmt.Fprintln(w, "  -verify          Read labels back with OCR")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintf(w, "  %s=<path>    Configuration file\n", config.EnvConfigPath)
	fmt.Fprintf(w, "  %s=debug  Enable debug logging\n", config.EnvLogLevel)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Image names must carry the objective magnification, e.g. quartz_40x.jpg.")
}

// runProcess is the one-shot batch mode. It returns the process exit code:
// 0 on success (skipped files included), 1 on a fatal error, 2 on bad usage.
func runProcess(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.SetOutput(stderr)
	outDir := fs.String("o", "", "output directory")
	cfgPath := fs.String("config", "", "YAML configuration file")
	archive := fs.String("archive", "", "zip file name")
	doVerify := fs.Bool("verify", false, "read labels back with OCR")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "process: no images given")
		return 2
	}

	logger := log.New(stderr, "", log.Ltime)

	var (
		cfg *config.Config
		err error
	)
	if *cfgPath != "" {
		cfg, err = config.Load(*cfgPath)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	table, err := cfg.Table()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	style, err := cfg.Style()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	f := overlay.LoadFont(cfg.FontOptions())
	if f.Degraded {
		logger.Printf("Preferred font unavailable, using %s: %s", f.Source, f.Reason)
	}

	name := *archive
	if name == "" {
		name = cfg.Output.ArchiveName
	}

	inputs := make([]batch.Input, fs.NArg())
	for i, path := range fs.Args() {
		inputs[i] = batch.FileInput(path)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := batch.New(table, overlay.NewCompositor(cfg.Layout, f, style), batch.Options{
		OutputDir:      *outDir,
		ArchiveName:    name,
		Encode:         cfg.EncodeOptions(),
		Verify:         *doVerify || cfg.Verify.Enabled,
		VerifyLanguage: cfg.Verify.Language,
		Logger:         logger,
	})
	result, err := p.Run(ctx, inputs)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(stderr, "process: interrupted")
		} else {
			fmt.Fprintf(stderr, "process: %v\n", err)
		}
		return 1
	}

	fmt.Fprintf(stdout, "Processed %d of %d images (%d warnings)\n",
		len(result.Processed), len(inputs), len(result.Diagnostics))
	fmt.Fprintf(stdout, "Archive: %s\n", result.ArchivePath)
	return 0
}
