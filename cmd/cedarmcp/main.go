package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cedarscript/cedarmcp/internal/config"
	"github.com/cedarscript/cedarmcp/internal/editor"
	mcpserver "github.com/cedarscript/cedarmcp/internal/mcp"
	"github.com/cedarscript/cedarmcp/internal/pkg/logger"
	"github.com/cedarscript/cedarmcp/internal/security"
	"github.com/cedarscript/cedarmcp/internal/version"
)

func main() {
	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 {
		cmd = args[0]
		args = args[1:]
	}

	switch cmd {
	case "serve":
		runServe(args)
	case "check":
		runCheck(args)
	case "capabilities":
		runCapabilities(args)
	case "version":
		fmt.Println(version.Version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("cedarmcp — CEDARScript MCP server v%s\n", version.Version)
	fmt.Println("\nUsage:")
	fmt.Println("  cedarmcp serve         Run the MCP server on stdio (default)")
	fmt.Println("  cedarmcp check PATH…   Validate paths against the policy")
	fmt.Println("  cedarmcp capabilities  Print the capabilities document")
	fmt.Println("  cedarmcp version       Print the server version")
	fmt.Println("\nEnvironment:")
	fmt.Println("  CEDARSCRIPT_ROOT, CEDARSCRIPT_READ_ONLY, CEDARSCRIPT_MAX_FILE_SIZE,")
	fmt.Println("  CEDARSCRIPT_DENYLIST, CEDARSCRIPT_BIN, CEDARSCRIPT_LOG_LEVEL,")
	fmt.Println("  CEDARSCRIPT_LOG_FORMAT")
}

// loadConfig layers CLI flags over the environment defaults.
func loadConfig(fs *flag.FlagSet, args []string) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	fs.StringVar(&cfg.Root, "root", cfg.Root, "project root directory")
	fs.BoolVar(&cfg.ReadOnly, "read-only", cfg.ReadOnly, "reject all write operations")
	fs.Int64Var(&cfg.MaxFileSize, "max-file-size", cfg.MaxFileSize, "maximum file size in bytes")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug|info|warn|error)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format (text|json)")
	denylist := fs.String("denylist", "", "comma-separated denylist patterns (replaces defaults)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *denylist != "" {
		cfg.Denylist = strings.Split(*denylist, ",")
	}
	return cfg, nil
}

func buildValidator(cfg *config.Config) (*security.Validator, error) {
	return security.NewValidator(cfg.Root, security.Options{
		ReadOnly:    cfg.ReadOnly,
		MaxFileSize: cfg.MaxFileSize,
		Denylist:    cfg.Denylist,
	})
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg, err := loadConfig(fs, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cedarmcp: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(cfg.LogLevel, cfg.LogFormat)

	validator, err := buildValidator(cfg)
	if err != nil {
		log.Error("validator construction failed", "root", cfg.Root, "error", err)
		os.Exit(1)
	}

	runner := editor.NewRunner(editor.NewExecEngine(cfg.EngineBin))
	srv := mcpserver.New(log, validator, runner)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- srv.Run() }()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-done:
		if err != nil {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}
}

func runCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	write := fs.Bool("write", false, "validate with write intent")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cedarmcp: %v\n", err)
		os.Exit(1)
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "cedarmcp check: at least one PATH required")
		os.Exit(2)
	}

	validator, err := buildValidator(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cedarmcp: %v\n", err)
		os.Exit(1)
	}

	intent := security.IntentRead
	if *write {
		intent = security.IntentWrite
	}

	failed := false
	for _, raw := range fs.Args() {
		canonical, err := validator.ValidatePath(raw, intent)
		if err != nil {
			failed = true
			fmt.Fprintf(os.Stderr, "DENY  %s: %v\n", raw, err)
			continue
		}
		fmt.Printf("OK    %s -> %s\n", raw, canonical)
	}
	if failed {
		os.Exit(1)
	}
}

func runCapabilities(args []string) {
	fs := flag.NewFlagSet("capabilities", flag.ExitOnError)
	cfg, err := loadConfig(fs, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cedarmcp: %v\n", err)
		os.Exit(1)
	}
	log := logger.Init(cfg.LogLevel, cfg.LogFormat)

	validator, err := buildValidator(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cedarmcp: %v\n", err)
		os.Exit(1)
	}
	runner := editor.NewRunner(editor.NewExecEngine(cfg.EngineBin))
	srv := mcpserver.New(log, validator, runner)

	out, err := json.MarshalIndent(srv.Capabilities(context.Background()), "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "cedarmcp: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
