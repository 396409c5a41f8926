// Command radial runs a job file: it builds the polar grid, materialises
// the field (analytic or HRRR), samples it around the center and writes
// the result as JSON or msgpack.
//
// Usage:
//
//	radial [options] JOB.hcl
//	radial -list
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/geal-ai/radialinterp"
	"github.com/geal-ai/radialinterp/hrrr"
	"github.com/geal-ai/radialinterp/internal/cli"
	"github.com/geal-ai/radialinterp/internal/ctxlog"
	"github.com/geal-ai/radialinterp/internal/encode"
	"github.com/geal-ai/radialinterp/internal/job"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(context.Background(), os.Stdout, os.Stderr, os.Args[1:], job.Deps{HRRR: hrrr.NewClient()}); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run parses args, executes the job and writes the result to outW or the
// -o file. Logs go to logW.
func run(ctx context.Context, outW, logW io.Writer, args []string, deps job.Deps) error {
	cfg, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}
	if cfg.ListVars {
		return hrrr.PrintVariables(outW)
	}

	logger := cfg.Logging.NewLogger(logW)
	ctx = ctxlog.WithLogger(ctx, logger)
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	j, err := job.Load(ctx, cfg.JobPath, deps)
	if err != nil {
		return err
	}
	res, err := execute(ctx, j, cfg.Workers)
	if err != nil {
		return fmt.Errorf("%s: %w", cfg.JobPath, err)
	}

	format := j.Output.Format
	if cfg.Format != "" {
		format = cfg.Format
	}

	if err := writeResult(outW, cfg.OutPath, format, res); err != nil {
		return err
	}

	logger.Info("job complete", "job", cfg.JobPath, "field", j.Kind,
		"points", res.Shape[0], "format", format, "out", cfg.OutPath)
	return nil
}

func writeResult(stdout io.Writer, path, format string, res *encode.Result) error {
	if path == "" || path == "-" {
		return encode.Write(stdout, format, res, true)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode.Write(f, format, res, true); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// execute materialises the job's field and samples it.
func execute(ctx context.Context, j *job.Job, workers int) (*encode.Result, error) {
	field, err := j.Source.Field(ctx, j.Center, j.Grid)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", j.Kind, err)
	}

	var opts []radialinterp.InterpOption
	if j.Output.Coordinates {
		opts = append(opts, radialinterp.WithCoordinates())
	}
	interp := &radialinterp.Interpolator{Workers: workers}
	in, err := interp.Interpolate(ctx, field, j.Center, j.Grid, opts...)
	if err != nil {
		return nil, err
	}

	res := encode.NewResult(j.Center, j.Grid, in)
	res.Field = j.Kind
	if j.Output.Mappable {
		if res.Mappables, err = encode.NewMappables(j.Grid, in.Values, j.Output.Strategy); err != nil {
			return nil, fmt.Errorf("mappable: %w", err)
		}
	}
	return res, nil
}
