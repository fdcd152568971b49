package client

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	transports "github.com/rzbill/logbook/internal/cmd/client/transports"
	"github.com/rzbill/logbook/internal/logtype"
)

// paletteAttrs maps log type palette names to terminal colors.
var paletteAttrs = map[string]color.Attribute{
	"red":    color.FgRed,
	"orange": color.FgHiRed,
	"yellow": color.FgYellow,
	"green":  color.FgGreen,
	"teal":   color.FgCyan,
	"blue":   color.FgBlue,
	"violet": color.FgMagenta,
	"pink":   color.FgHiMagenta,
}

// colorEnabled reports whether w is a terminal and NO_COLOR is unset.
func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// paint renders text in the palette color name when w supports it.
func paint(w io.Writer, name, text string) string {
	attr, ok := paletteAttrs[name]
	if !ok || !colorEnabled(w) {
		return text
	}
	c := color.New(attr, color.Bold)
	c.EnableColor()
	return c.Sprint(text)
}

// dim renders secondary text.
func dim(w io.Writer, text string) string {
	if !colorEnabled(w) {
		return text
	}
	c := color.New(color.Faint)
	c.EnableColor()
	return c.Sprint(text)
}

// writeJSON pretty-prints v.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// localTime renders an API timestamp in the local zone, falling back to the
// raw string.
func localTime(ts string) string {
	t, err := logtype.ParseTime(ts)
	if err != nil {
		return ts
	}
	return t.In(time.Local).Format("2006-01-02 15:04")
}

// logLine is the one-line rendering of a log.
func logLine(w io.Writer, l transports.Log) string {
	return dim(w, localTime(l.CreateAt)) + "  " + paint(w, l.Color, "●") + " " + paint(w, l.Color, l.Name) + "  " + l.Content
}
