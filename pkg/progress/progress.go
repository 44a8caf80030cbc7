package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
)

type Progress struct {
	ProgressColorEnabled     bool
	ProgressIndicatorEnabled bool
	progressIndicator        *spinner.Spinner
	progressIndicatorMu      sync.Mutex
}

func (p *Progress) StartProgressIndicator(out io.Writer) {
	p.StartProgressIndicatorWithLabel("", out)
}

func (p *Progress) StartProgressIndicatorWithLabel(label string, s io.Writer) {
	if !p.ProgressIndicatorEnabled {
		return
	}

	p.progressIndicatorMu.Lock()
	defer p.progressIndicatorMu.Unlock()

	if p.progressIndicator != nil {
		if label == "" {
			p.progressIndicator.Prefix = ""
		} else {
			p.progressIndicator.Prefix = label + " "
		}
		return
	}

	// https://github.com/briandowns/spinner#available-character-sets
	var sp *spinner.Spinner
	if p.ProgressColorEnabled {
		sp = spinner.New(spinner.CharSets[11], 120*time.Millisecond, spinner.WithWriter(s), spinner.WithColor("fgCyan"))
	} else {
		sp = spinner.New(spinner.CharSets[14], 120*time.Millisecond, spinner.WithWriter(s))
	}

	if label != "" {
		sp.Prefix = label + " "
	}

	sp.Start()
	p.progressIndicator = sp
}

func (p *Progress) StopProgressIndicator() {
	p.progressIndicatorMu.Lock()
	defer p.progressIndicatorMu.Unlock()
	if p.progressIndicator == nil {
		return
	}
	p.progressIndicator.Stop()
	p.progressIndicator = nil
}

func (p *Progress) RunWithProgress(label string, run func() error, out io.Writer) error {
	p.StartProgressIndicatorWithLabel(label, out)
	defer p.StopProgressIndicator()

	return run()
}

// Stream overwrites the current terminal line with text. Nothing is
// written when the indicator is disabled.
func (p *Progress) Stream(out io.Writer, text string) {
	if !p.ProgressIndicatorEnabled {
		return
	}

	p.progressIndicatorMu.Lock()
	defer p.progressIndicatorMu.Unlock()

	if p.progressIndicator != nil && p.progressIndicator.Active() {
		p.progressIndicator.Stop()
	}

	_, _ = io.WriteString(out, "\r"+text+"\033[K")
}

// Counter streams "<verb> <item> [n/total]" lines for a known number of steps.
type Counter struct {
	p     *Progress
	out   io.Writer
	verb  string
	total int

	mu   sync.Mutex
	done int
}

// NewCounter returns a Counter writing to out.
func (p *Progress) NewCounter(out io.Writer, verb string, total int) *Counter {
	return &Counter{p: p, out: out, verb: verb, total: total}
}

// Step reports that item has been handled. It is safe for concurrent use.
func (c *Counter) Step(item string) {
	c.mu.Lock()
	c.done++
	n := c.done
	c.mu.Unlock()

	c.p.Stream(c.out, fmt.Sprintf("  %s %s [%d/%d]", c.verb, item, n, c.total))
}

// Done clears the progress line.
func (c *Counter) Done() {
	c.p.Stream(c.out, "")
	c.p.StopProgressIndicator()
}
