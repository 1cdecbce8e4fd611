package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	"   ___ __ _ ___  ___ __ _  __| | ___ ",
	"  / __/ _` / __|/ __/ _` |/ _` |/ _ \\",
	" | (_| (_| \\__ \\ (_| (_| | (_| |  __/",
	"  \\___\\__,_|___/\\___\\__,_|\\__,_|\\___|",
}

var bannerColors = []string{"#38bdf8", "#22d3ee", "#2dd4bf", "#34d399"}

// PrintBanner writes the cascade banner, coloured when the terminal supports it.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w)
}
