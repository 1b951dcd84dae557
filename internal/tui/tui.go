// Package tui implements the interactive terminal UI for vigil.
package tui

import (
	"context"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nexus-vision/vigil/internal/monitor"
)

// programRef is a shared reference to the tea.Program for goroutine sends.
// It's set after tea.NewProgram but before p.Run().
type programRef struct {
	mu sync.Mutex
	p  *tea.Program
}

func (r *programRef) Set(p *tea.Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = p
}

func (r *programRef) Send(msg tea.Msg) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// Clear nils out the program reference, preventing post-exit sends.
func (r *programRef) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.p = nil
}

// snapshotPump coalesces change notifications so a slow render never blocks
// the App. Only the newest snapshot is delivered.
type snapshotPump struct {
	mu     sync.Mutex
	latest monitor.Snapshot
	wake   chan struct{}
}

func newSnapshotPump() *snapshotPump {
	return &snapshotPump{wake: make(chan struct{}, 1)}
}

func (p *snapshotPump) Offer(s monitor.Snapshot) {
	p.mu.Lock()
	if s.Version >= p.latest.Version {
		p.latest = s
	}
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *snapshotPump) run(ctx context.Context, ref *programRef) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.wake:
			p.mu.Lock()
			s := p.latest
			p.mu.Unlock()
			ref.Send(SnapshotMsg{Snapshot: s})
		}
	}
}

// Options configures the TUI.
type Options struct {
	// BaseURL resolves relative attachment references for display.
	BaseURL string
	// ActionTimeout bounds each operator request.
	ActionTimeout time.Duration
	// LogFile receives the standard logger while the TUI owns the terminal.
	LogFile string
}

// Run launches the TUI on top of a started App and blocks until the
// operator quits.
func Run(ctx context.Context, app *monitor.App, opts Options) error {
	if opts.LogFile != "" {
		f, err := tea.LogToFile(opts.LogFile, "vigil")
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ref := &programRef{}
	pump := newSnapshotPump()
	app.OnChange(pump.Offer)
	defer app.OnChange(nil)

	model := NewModel(app, opts.BaseURL, opts.ActionTimeout, ref)
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	// Store program reference for goroutine sends
	ref.Set(p)
	defer ref.Clear()
	go pump.run(ctx, ref)

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		// Cancelled from outside (signal); not a UI failure.
		return nil
	}
	return err
}
