package main

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"uploadcheck/internal/safety"
)

func shouldColorize(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type palette struct {
	safe   *color.Color
	risky  *color.Color
	danger *color.Color
	muted  *color.Color
	failed *color.Color
}

func newPalette(w io.Writer) palette {
	p := palette{
		safe:   color.New(color.FgGreen, color.Bold),
		risky:  color.New(color.FgYellow),
		danger: color.New(color.FgRed, color.Bold),
		muted:  color.New(color.Faint),
		failed: color.New(color.FgRed),
	}
	enable := shouldColorize(w)
	for _, c := range []*color.Color{p.safe, p.risky, p.danger, p.muted, p.failed} {
		if enable {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) outcome(o safety.Outcome) string {
	label := string(o)
	switch o {
	case safety.OutcomeSafe:
		return p.safe.Sprint(label)
	case safety.OutcomeRisky:
		return p.risky.Sprint(label)
	case safety.OutcomeDanger:
		return p.danger.Sprint(label)
	default:
		return p.muted.Sprint(label)
	}
}

func (p palette) status(ok, optional bool) string {
	switch {
	case ok:
		return p.safe.Sprint("ok")
	case optional:
		return p.risky.Sprint("warn")
	default:
		return p.failed.Sprint("fail")
	}
}
