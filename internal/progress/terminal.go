package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"github.com/zulandar/classlive/internal/models"
	"golang.org/x/term"
)

const barWidth = 30

// Terminal draws progress to w. On a TTY each phase gets an mpb bar;
// otherwise it prints one line per phase start and finish. Handles stop
// accepting new work once ctx is cancelled.
type Terminal struct {
	ctx context.Context
	out io.Writer
	tty bool
}

// NewTerminal returns a Terminal writing to w.
func NewTerminal(ctx context.Context, w io.Writer) *Terminal {
	return &Terminal{ctx: ctx, out: w, tty: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Start implements Tracker.
func (t *Terminal) Start(total int64, phase models.Phase) Handle {
	h := &terminalHandle{t: t, phase: phase, total: total}
	if !t.tty {
		fmt.Fprintf(t.out, "%s: %d units\n", phase, total)
		return h
	}

	h.container = mpb.NewWithContext(t.ctx,
		mpb.WithOutput(t.out),
		mpb.WithWidth(barWidth),
		mpb.WithAutoRefresh(),
	)
	h.bar = h.container.New(total,
		mpb.BarStyle().Lbound("[").Filler("#").Tip("#").Padding("-").Rbound("]"),
		mpb.PrependDecorators(decor.Any(h.label, decor.WC{W: 24, C: decor.DindentRight})),
		mpb.AppendDecorators(decor.CountersNoUnit("%d/%d", decor.WCSyncSpace)),
	)
	return h
}

type terminalHandle struct {
	t         *Terminal
	container *mpb.Progress
	bar       *mpb.Bar

	mu       sync.Mutex
	phase    models.Phase
	total    int64
	done     int64
	finished bool
}

// label feeds the bar's name decorator; Finish may relabel the phase.
func (h *terminalHandle) label(decor.Statistics) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.phase.String()
}

func (h *terminalHandle) Advance(delta int64) {
	h.mu.Lock()
	h.done += delta
	h.mu.Unlock()
	if h.bar != nil {
		h.bar.IncrInt64(delta)
	}
}

func (h *terminalHandle) ShouldContinue() bool {
	return h.t.ctx.Err() == nil
}

func (h *terminalHandle) Finish(phase models.Phase) {
	h.mu.Lock()
	if h.finished {
		h.mu.Unlock()
		return
	}
	h.finished = true
	h.phase = phase
	done, total := h.done, h.total
	h.mu.Unlock()

	if h.bar == nil {
		fmt.Fprintf(h.t.out, "%s: done %d/%d\n", phase, done, total)
		return
	}
	// A stopped phase keeps its partial count on screen.
	if done >= total {
		h.bar.SetTotal(-1, true)
	} else {
		h.bar.Abort(false)
	}
	h.container.Wait()
}
