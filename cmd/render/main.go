package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/rankdelta/internal/config"
	"github.com/okian/rankdelta/internal/reportcli"
)

// Default configuration constants.
const (
	defaultTimeout  = 30 * time.Second
	defaultLogLevel = "warn"
)

func main() {
	var (
		dataDir    = flag.String("data", "", "Directory of snapshot files (default from config)")
		period     = flag.String("period", "", "Period to render, YYYY-MM or YYYY (default: latest)")
		template   = flag.String("template", "", `Template file; "-" reads stdin`)
		table      = flag.String("table", "", "Render a single placeholder")
		outputFile = flag.String("output", "", "Output file (default: stdout)")
		list       = flag.Bool("list", false, "Print table names and loaded periods")
		logLevel   = flag.String("log-level", defaultLogLevel, "debug, info, warn or error")
		timeout    = flag.Duration("timeout", defaultTimeout, "Bound on the whole run")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		reportcli.ShowHelp(os.Stdout)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	base, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	cfg := &reportcli.Config{
		DataDir:    *dataDir,
		Period:     *period,
		Template:   *template,
		Table:      *table,
		OutputFile: *outputFile,
		LogLevel:   *logLevel,
		Timeout:    *timeout,
		List:       *list,
	}
	if err := reportcli.Run(ctx, cfg, base, os.Stdin, os.Stdout, os.Stderr); err != nil {
		os.Stderr.WriteString("render failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
