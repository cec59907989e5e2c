package main

import (
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"uploadcheck/internal/checker"
)

// stageProgress draws one bar per stage on an interactive terminal.
type stageProgress struct {
	out   io.Writer
	mu    sync.Mutex
	stage checker.Stage
	bar   *progressbar.ProgressBar
}

func newStageProgress(out io.Writer) *stageProgress {
	if !shouldColorize(out) {
		return nil
	}
	return &stageProgress{out: out}
}

func (p *stageProgress) update(stage checker.Stage, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if total <= 0 {
		return
	}
	if p.bar == nil || p.stage != stage {
		if p.bar != nil {
			_ = p.bar.Finish()
		}
		p.stage = stage
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription(string(stage)),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetPredictTime(false),
		)
	}
	_ = p.bar.Set(done)
}

func (p *stageProgress) finish() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}
