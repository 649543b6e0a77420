package main

import (
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// useColor follows fatih/color's NO_COLOR and TERM=dumb handling and also
// requires f itself to be a terminal, since color.NoColor only checks stdout.
func useColor(f *os.File) bool {
	return !color.NoColor && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// NewLogger builds the root logger. Console output is coloured only when w
// is a terminal and colour has not been turned off.
func NewLogger(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), err
	}
	out := w
	if format == "console" {
		cw := zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.TimeOnly}
		if f, ok := w.(*os.File); ok && useColor(f) {
			cw.Out = colorable.NewColorable(f)
			cw.NoColor = false
		}
		out = cw
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// printBanner writes the one-line startup notice shown before the listener
// comes up.
func printBanner(f *os.File, cfg *Config, root string) {
	name := color.New(color.FgCyan, color.Bold)
	detail := color.New(color.Faint)
	if !useColor(f) {
		name.DisableColor()
		detail.DisableColor()
	}
	w := colorable.NewColorable(f)
	name.Fprint(w, "http-server")
	detail.Fprintf(w, " serving %s on %s\n", root, cfg.Addr())
}
