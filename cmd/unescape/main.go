package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/mnightingale/charref"
)

func main() {
	os.Exit(run())
}

func run() int {
	return runWithArgs(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// createOutput opens the -o file.
var createOutput = func(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

func runWithArgs(args []string, stdin io.Reader, stdout, stderr io.Writer) (code int) {
	fs := flag.NewFlagSet("unescape", flag.ContinueOnError)
	fs.SetOutput(stderr)
	tablePath := fs.String("table", "", "path to an entities.json file replacing the built-in HTML5 entities")
	outPath := fs.String("o", "", "write output to file instead of stdout")
	jobs := fs.Int("j", runtime.GOMAXPROCS(0), "number of files decoded concurrently")
	verbose := fs.Bool("v", false, "log debug output")
	var usageErr error
	fs.Usage = func() {
		usageErr = errors.Join(
			usageErr,
			writef(stderr, "Usage: %s [options] [file ...]\n\n", fs.Name()),
			writeln(stderr, "Decodes HTML character references in the files, or stdin, to stdout."),
			writeln(stderr),
			writeln(stderr, "Options:"),
		)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *jobs < 1 {
		if err := writeln(stderr, "error: -j must be at least 1"); err != nil {
			return 1
		}
		fs.Usage()
		if usageErr != nil {
			return 1
		}
		return 2
	}

	logger := newLogger(stderr, *verbose)
	defer func() { _ = logger.Sync() }()
	charref.SetLogger(logger)

	table := charref.HTML5()
	if *tablePath != "" {
		var err error
		if table, err = loadTable(*tablePath); err != nil {
			logger.Error("loading entity table", zap.String("file", *tablePath), zap.Error(err))
			return 1
		}
	}

	out := stdout
	if *outPath != "" {
		f, err := createOutput(*outPath)
		if err != nil {
			logger.Error("creating output", zap.String("file", *outPath), zap.Error(err))
			return 1
		}
		defer func() {
			if err := f.Close(); err != nil {
				logger.Error("closing output", zap.String("file", *outPath), zap.Error(err))
				code = 1
			}
		}()
		out = f
	}

	if fs.NArg() == 0 {
		dec := charref.NewDecoder(stdin, charref.WithTable(table))
		if n, err := dec.WriteTo(out); err != nil {
			logger.Error("decoding stdin", zap.Int64("written", n), zap.Error(err))
			return 1
		}
		return 0
	}

	if err := decodeFiles(context.Background(), logger, table, fs.Args(), *jobs, out); err != nil {
		logger.Error("decoding files", zap.Error(err))
		return 1
	}
	return 0
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	cfg := zap.NewProductionEncoderConfig()
	if verbose {
		level = zapcore.DebugLevel
		cfg = zap.NewDevelopmentEncoderConfig()
	}
	return zap.New(zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(w), level))
}

func loadTable(path string) (*charref.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return charref.LoadTable(f)
}

// decodeFiles decodes paths concurrently and writes the results to w in
// argument order.
func decodeFiles(ctx context.Context, logger *zap.Logger, table *charref.Table, paths []string, jobs int, w io.Writer) error {
	decoded := make([][]byte, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			decoded[i] = table.UnescapeAll(src)
			logger.Debug("decoded", zap.String("file", path), zap.Int("in", len(src)), zap.Int("out", len(decoded[i])))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, b := range decoded {
		if _, err := w.Write(b); err != nil {
			return err
		}
	}
	return nil
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}
