package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text, color string
}{
	{` _   _           _              `, "#38bdf8"},
	{`| |_(_)_ __ ___ | |__  _ __ ___ `, "#22d3ee"},
	{`| __| | '_ ' _ \| '_ \| '__/ _ \`, "#2dd4bf"},
	{`| |_| | | | | | | |_) | | |  __/`, "#34d399"},
	{` \__|_|_| |_| |_|_.__/|_|  \___|`, "#4ade80"},
}

// PrintBanner writes the study banner to w. Colors are dropped when w is not
// a terminal.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()
	if !IsTerminal(w) {
		p = termenv.Ascii
	}

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, p.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, p.String("  perceptual rating study "+version).Faint())
	fmt.Fprintln(w)
}
