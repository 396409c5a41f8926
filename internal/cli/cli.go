package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// ExitError is an error that carries a process exit code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

func usageError(format string, args ...any) error {
	return &ExitError{Code: 2, Message: fmt.Sprintf(format, args...)}
}

// Logging holds the flags shared by every command.
type Logging struct {
	LogLevel  string
	LogFormat string
}

func (l *Logging) register(fs *flag.FlagSet) {
	fs.StringVar(&l.LogLevel, "log-level", "info", "Logging level: 'debug', 'info', 'warn' or 'error'.")
	fs.StringVar(&l.LogFormat, "log-format", "text", "Log output format: 'text' or 'json'.")
}

func (l *Logging) validate() error {
	l.LogLevel = strings.ToLower(l.LogLevel)
	l.LogFormat = strings.ToLower(l.LogFormat)
	switch l.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return usageError("invalid log-level %q: must be 'debug', 'info', 'warn' or 'error'", l.LogLevel)
	}
	if l.LogFormat != "text" && l.LogFormat != "json" {
		return usageError("invalid log-format %q: must be 'text' or 'json'", l.LogFormat)
	}
	return nil
}

// NewLogger builds a logger writing to w. It does not touch slog.Default.
func (l Logging) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch l.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Config is the radial job runner's configuration.
type Config struct {
	JobPath string
	OutPath string // "" or "-" means stdout
	Format  string // "json" or "msgpack"
	Workers int
	Timeout time.Duration
	// ListVars prints the known HRRR variables instead of running a job.
	ListVars bool
	Logging
}

// Parse processes radial's arguments. It returns the config, whether the
// program should exit cleanly (help was printed), or an *ExitError.
func Parse(args []string, output io.Writer) (*Config, bool, error) {
	fs := flag.NewFlagSet("radial", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, `
radial - sample a geographic field on a polar grid around a center point.

Usage:
  radial [options] JOB.hcl

Arguments:
  JOB.hcl
    Job file with grid, center, field and output blocks.

Options:
`)
		fs.PrintDefaults()
	}

	cfg := &Config{}
	fs.StringVar(&cfg.OutPath, "o", "", "Write the result to this file instead of stdout.")
	fs.StringVar(&cfg.Format, "format", "", "Result encoding: 'json' or 'msgpack'. Overrides the job's output block.")
	fs.IntVar(&cfg.Workers, "workers", 4, "Concurrent geodesic workers.")
	fs.DurationVar(&cfg.Timeout, "timeout", 5*time.Minute, "Abort the job after this long. 0 disables.")
	fs.BoolVar(&cfg.ListVars, "list", false, "List known HRRR variables and exit.")
	cfg.Logging.register(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	switch {
	case cfg.ListVars:
		if fs.NArg() > 0 {
			return nil, false, usageError("-list takes no job file")
		}
	case fs.NArg() == 0:
		fs.Usage()
		return nil, true, nil
	case fs.NArg() == 1:
		cfg.JobPath = fs.Arg(0)
	default:
		return nil, false, usageError("expected one job file, got %d arguments", fs.NArg())
	}

	cfg.Format = strings.ToLower(cfg.Format)
	if cfg.Format != "" && cfg.Format != "json" && cfg.Format != "msgpack" {
		return nil, false, usageError("invalid format %q: must be 'json' or 'msgpack'", cfg.Format)
	}
	if cfg.Workers < 1 {
		return nil, false, usageError("invalid workers %d: must be at least 1", cfg.Workers)
	}
	if cfg.Timeout < 0 {
		return nil, false, usageError("invalid timeout %s: must not be negative", cfg.Timeout)
	}
	if err := cfg.Logging.validate(); err != nil {
		return nil, false, err
	}
	return cfg, false, nil
}

// ServerConfig is the radiald service's configuration.
type ServerConfig struct {
	Addr           string
	Workers        int
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	Logging
}

// ParseServer processes radiald's arguments. Flags left unset fall back to
// RADIAL_ADDR and RADIAL_LOG_LEVEL from getenv.
func ParseServer(args []string, output io.Writer, getenv func(string) string) (*ServerConfig, bool, error) {
	fs := flag.NewFlagSet("radiald", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, `
radiald - HTTP service for polar grids, radial interpolation and mappable arrays.

Usage:
  radiald [options]

Options:
`)
		fs.PrintDefaults()
	}

	cfg := &ServerConfig{}
	fs.StringVar(&cfg.Addr, "addr", envOr(getenv, "RADIAL_ADDR", ":8080"), "Listen address. Env: RADIAL_ADDR.")
	fs.IntVar(&cfg.Workers, "workers", 4, "Concurrent geodesic workers per request.")
	fs.DurationVar(&cfg.RequestTimeout, "request-timeout", 60*time.Second, "Per-request timeout.")
	fs.Int64Var(&cfg.MaxBodyBytes, "max-body-bytes", 32<<20, "Largest accepted request body.")
	cfg.Logging.register(fs)
	if lvl := getenv("RADIAL_LOG_LEVEL"); lvl != "" {
		cfg.Logging.LogLevel = lvl
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if fs.NArg() > 0 {
		return nil, false, usageError("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if cfg.Addr == "" {
		return nil, false, usageError("addr must not be empty")
	}
	if cfg.Workers < 1 {
		return nil, false, usageError("invalid workers %d: must be at least 1", cfg.Workers)
	}
	if cfg.RequestTimeout <= 0 {
		return nil, false, usageError("invalid request-timeout %s: must be positive", cfg.RequestTimeout)
	}
	if cfg.MaxBodyBytes <= 0 {
		return nil, false, usageError("invalid max-body-bytes %d: must be positive", cfg.MaxBodyBytes)
	}
	if err := cfg.Logging.validate(); err != nil {
		return nil, false, err
	}
	return cfg, false, nil
}

func envOr(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}
