package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// ConsoleReporter renders conversation output and bulk progress to a
// terminal. It implements service.StatusReporter.
type ConsoleReporter struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
	mu     sync.Mutex
}

// NewConsoleReporter creates a reporter writing to w.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{writer: w}
}

// SetStatus shows a progress bar while percent is in (0, 100] and
// clears it otherwise. The bulk pipeline reports once per group.
func (r *ConsoleReporter) SetStatus(text string, percent int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if percent <= 0 {
		r.finishBarLocked()
		if text != "" {
			fmt.Fprintln(r.writer, SubtleStyle.Render(text))
		}
		return
	}

	if r.bar == nil {
		r.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(r.writer),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(40),
			progressbar.OptionSetDescription(text),
		)
	} else {
		r.bar.Describe(text)
	}
	_ = r.bar.Set(percent)

	if percent >= 100 {
		r.finishBarLocked()
	}
}

// SetBusy is a no-op on the console; the progress bar already conveys
// activity.
func (r *ConsoleReporter) SetBusy(bool) {}

// AppendMessage prints one conversation turn with role styling.
func (r *ConsoleReporter) AppendMessage(role, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finishBarLocked()

	switch role {
	case "assistant":
		fmt.Fprintln(r.writer, AssistantStyle.Render(text))
	case "user":
		// The user already sees their own input; skip the echo.
	default:
		fmt.Fprintln(r.writer, SubtleStyle.Render(text))
	}
}

func (r *ConsoleReporter) finishBarLocked() {
	if r.bar == nil {
		return
	}
	_ = r.bar.Clear()
	r.bar = nil
}
