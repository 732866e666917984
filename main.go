package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"colorquant/parallel"
	"colorquant/reduce"

	"github.com/alecthomas/kong"
	"golang.org/x/term"
)

type cli struct {
	Workers   int    `help:"Pictures processed at once, 0 uses every CPU" default:"0"`
	LogLevel  string `help:"Minimum log level" enum:"debug,info,warn,error" default:"info"`
	LogFormat string `help:"Log output format, auto picks text on a terminal and json otherwise" enum:"auto,text,json" default:"auto"`

	Reduce reduce.CLICmd `cmd:"" help:"Reduce the colors of every picture in a folder"`
}

func newLogger(w io.Writer, format, lvl string) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(lvl)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", lvl, err)
	}

	if format == "auto" {
		format = "json"
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			format = "text"
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("unsupported log format %q", format)
}

func main() {
	var conf cli
	kctx := kong.Parse(&conf,
		kong.Name("colorquant"),
		kong.Description("Reduce the number of colors in pictures with dithering or palette selection."),
		kong.UsageOnError(),
	)

	logger, err := newLogger(os.Stderr, conf.LogFormat, conf.LogLevel)
	kctx.FatalIfErrorf(err)
	slog.SetDefault(logger)

	pool := parallel.Start(conf.Workers)
	slog.Debug("running", "command", kctx.Command(), "workers", pool.Workers())

	err = kctx.Run(pool.Do, pool.Wait)
	pool.Cancel()
	kctx.FatalIfErrorf(err)
}
