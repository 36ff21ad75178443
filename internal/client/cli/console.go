package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/client/notify"
	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/logging"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// newSink picks the notification sink for the process: console lines when
// out is a terminal, the structured logger when output is redirected.
func newSink(out *os.File, log logging.Logger) notify.Sink {
	if isTerminal(int(out.Fd())) {
		return &ConsoleSink{Out: out}
	}
	return notify.NewLogSink(log)
}

// ConsoleSink renders notifications as single lines on the terminal, the
// CLI's stand-in for toast popups.
type ConsoleSink struct {
	Out io.Writer
}

func (s *ConsoleSink) Notify(_ context.Context, n notify.Notification) {
	tag := "ok"
	if n.Kind == notify.KindError {
		tag = "err"
	}
	fmt.Fprintf(s.Out, "[%s] %s: %s\n", tag, n.Title, n.Message)
}
