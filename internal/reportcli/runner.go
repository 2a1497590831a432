package reportcli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	service "github.com/okian/rankdelta/internal/app"
	"github.com/okian/rankdelta/internal/config"
	"github.com/okian/rankdelta/pkg/logger"
)

// File permission constants.
const (
	outputFilePermission = 0o644
)

// Run loads the snapshots named by cfg and writes the rendered output to
// stdout, or to cfg.OutputFile when set. base supplies the remaining
// service settings.
func Run(ctx context.Context, cfg *Config, base *config.Config, stdin io.Reader, stdout, stderr io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	log, err := logger.New(stderr, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}

	opts := []service.Option{service.WithLogger(log), service.WithConfig(base)}
	if cfg.DataDir != "" {
		opts = append(opts, service.WithDataDir(cfg.DataDir))
	}
	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	log.Info(ctx, "rendering report",
		logger.String("period", cfg.Period),
		logger.String("template", cfg.Template),
		logger.String("table", cfg.Table))

	out, err := render(ctx, svc, cfg, stdin)
	if err != nil {
		return err
	}
	return write(cfg.OutputFile, out, stdout)
}

func render(ctx context.Context, svc *service.Service, cfg *Config, stdin io.Reader) (string, error) {
	switch {
	case cfg.List:
		var b strings.Builder
		b.WriteString("tables:\n")
		for _, t := range svc.Tables() {
			fmt.Fprintf(&b, "  %s\n", t)
		}
		b.WriteString("periods:\n")
		for _, p := range svc.Periods(ctx) {
			fmt.Fprintf(&b, "  %s\n", p)
		}
		return b.String(), nil
	case cfg.Table != "":
		return svc.RenderTable(ctx, cfg.Period, cfg.Table)
	default:
		text, err := readTemplate(cfg.Template, stdin)
		if err != nil {
			return "", err
		}
		return svc.RenderTemplate(ctx, cfg.Period, text)
	}
}

func readTemplate(path string, stdin io.Reader) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read template: %w", err)
	}
	return string(b), nil
}

func write(path, out string, stdout io.Writer) error {
	if path == "" {
		_, err := io.WriteString(stdout, out)
		return err
	}
	if err := os.WriteFile(path, []byte(out), outputFilePermission); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
