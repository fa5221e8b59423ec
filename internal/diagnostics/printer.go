package diagnostics

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// ColorMode selects when the printer emits ANSI colours.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(s); m {
	case ColorAuto, ColorAlways, ColorNever:
		return m, nil
	case "":
		return ColorAuto, nil
	default:
		return "", fmt.Errorf("invalid color mode %q (want auto, always or never)", s)
	}
}

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiDim    = "\033[2m"
)

// Printer writes diagnostics one per line.
type Printer struct {
	w     io.Writer
	color bool
}

func NewPrinter(w io.Writer, mode ColorMode) *Printer {
	return &Printer{w: w, color: useColor(w, mode)}
}

func useColor(w io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	// NO_COLOR convention: https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Printer) Colored() bool { return p.color }

func (p *Printer) Print(d *DiagnosticError) error {
	label := "error"
	labelColor := ansiRed
	if d.Code.IsRuntime() {
		label = "runtime error"
		labelColor = ansiYellow
	}
	where := ""
	if d.Node >= 0 {
		where = fmt.Sprintf(" node %d:", d.Node)
	}
	var err error
	if p.color {
		_, err = fmt.Fprintf(p.w, "%s%s%s[%s]%s%s%s%s %s %s(%s)%s\n",
			ansiBold, labelColor, label, d.Code, ansiReset,
			ansiBold, where, ansiReset, d.Message,
			ansiDim, d.Code.Description(), ansiReset)
	} else {
		_, err = fmt.Fprintf(p.w, "%s[%s]%s %s (%s)\n", label, d.Code, where, d.Message, d.Code.Description())
	}
	return err
}

// PrintAll prints every diagnostic and returns how many were printed.
func (p *Printer) PrintAll(ds []*DiagnosticError) (int, error) {
	for i, d := range ds {
		if err := p.Print(d); err != nil {
			return i, err
		}
	}
	return len(ds), nil
}
