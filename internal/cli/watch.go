package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nexus-vision/vigil/internal/models"
	"github.com/nexus-vision/vigil/internal/monitor"
)

var (
	watchStream  bool
	watchHistory bool
	watchJSON    bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print alerts as they arrive, without the dashboard",
	Long: `Run the client headless and print every new entry on its own line.

With --stream the live stream is opened and the backend polled, so stream
state changes and gauges are reported too. The drop folder and debug
endpoint run when configured.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchStream, "stream", false, "open the live stream and poll status")
	watchCmd.Flags().BoolVar(&watchHistory, "history", false, "load recent backend history first")
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "print entries as JSON lines")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	app, _, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := newSnapshotPrinter(cmd.OutOrStdout(), watchJSON)
	app.OnChange(p.Print)

	if err := app.Start(ctx); err != nil {
		return err
	}
	if err := startExtras(ctx, cfg, app); err != nil {
		return err
	}
	if watchHistory {
		hctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
		err := app.FetchLogs(hctx)
		cancel()
		if err != nil {
			// The failure is already an entry; keep watching.
			fmt.Fprintln(cmd.ErrOrStderr(), render(styleWarning, "history unavailable: "+err.Error()))
		}
	}
	if watchStream {
		app.SetStreaming(true)
	}

	if !watchJSON {
		fmt.Fprintln(cmd.ErrOrStderr(), render(styleHint, "Watching "+cfg.BackendURL+" · Ctrl+C to stop"))
	}
	<-ctx.Done()
	return nil
}

// snapshotPrinter writes entries it has not printed before, oldest first,
// plus stream and channel transitions.
type snapshotPrinter struct {
	mu        sync.Mutex
	out       io.Writer
	asJSON    bool
	version   uint64
	seen      map[string]bool
	phase     monitor.Phase
	channelUp bool
	started   bool
}

func newSnapshotPrinter(out io.Writer, asJSON bool) *snapshotPrinter {
	return &snapshotPrinter{out: out, asJSON: asJSON, seen: make(map[string]bool)}
}

func (p *snapshotPrinter) Print(s monitor.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started && s.Version <= p.version {
		return
	}
	p.version = s.Version

	if !p.asJSON {
		if !p.started || s.ChannelConnected != p.channelUp {
			p.printChannel(s.ChannelConnected)
		}
		if p.started && s.Stream.Phase != p.phase {
			p.printPhase(s)
		}
	}
	p.started = true
	p.channelUp = s.ChannelConnected
	p.phase = s.Stream.Phase

	seen := make(map[string]bool, len(s.Entries))
	for i := len(s.Entries) - 1; i >= 0; i-- {
		e := s.Entries[i]
		key := e.ID + "\x00" + e.Time + "\x00" + e.Title + "\x00" + e.Message
		seen[key] = true
		if !p.seen[key] {
			p.printEntry(e)
		}
	}
	p.seen = seen
}

func (p *snapshotPrinter) printEntry(e models.LogEntry) {
	if p.asJSON {
		data, err := json.Marshal(e)
		if err != nil {
			return
		}
		fmt.Fprintln(p.out, string(data))
		return
	}
	fmt.Fprintln(p.out, formatEntry(e))
}

func (p *snapshotPrinter) printChannel(up bool) {
	if up {
		fmt.Fprintln(p.out, render(styleSuccess, "● push channel connected"))
	} else {
		fmt.Fprintln(p.out, render(styleWarning, "⚠ push channel disconnected"))
	}
}

func (p *snapshotPrinter) printPhase(s monitor.Snapshot) {
	switch s.Stream.Phase {
	case monitor.PhaseConnected:
		fmt.Fprintln(p.out, render(styleSuccess, "● stream live"))
	case monitor.PhaseConnecting:
		fmt.Fprintln(p.out, render(styleHint, "… stream connecting"))
	case monitor.PhaseErrored:
		fmt.Fprintln(p.out, render(styleError, "✕ stream error: "+s.Stream.LastError))
	case monitor.PhaseIdle:
		fmt.Fprintln(p.out, render(styleHint, "○ stream off"))
	}
}
