package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nexus-vision/vigil/internal/models"
	"github.com/nexus-vision/vigil/internal/observability"
)

// Tab is the visible view.
type Tab string

const (
	TabDashboard Tab = "dashboard"
	TabLogs      Tab = "logs"
	TabSettings  Tab = "settings"
)

// Tabs lists the views in display order.
var Tabs = []Tab{TabDashboard, TabLogs, TabSettings}

// frameNotifyInterval throttles change notifications caused only by frame
// counts. Phase changes are always reported.
const frameNotifyInterval = 500 * time.Millisecond

// Snapshot is the render-ready view of the whole client.
type Snapshot struct {
	Version          uint64                   `json:"version"`
	Tab              Tab                      `json:"tab"`
	Stream           StreamState              `json:"stream"`
	Stats            models.Stats             `json:"stats"`
	Entries          []models.LogEntry        `json:"entries"`
	BufferCap        int                      `json:"buffer_capacity"`
	Settings         models.InferenceSettings `json:"settings"`
	AckSettings      models.InferenceSettings `json:"acknowledged_settings"`
	SettingsDirty    bool                     `json:"settings_dirty"`
	SettingsSaving   bool                     `json:"settings_saving"`
	SettingsLoaded   bool                     `json:"settings_loaded"`
	Preview          models.Attachment        `json:"preview"`
	Backend          models.BackendInfo       `json:"backend"`
	ChannelConnected bool                     `json:"channel_connected"`
}

// Options configures an App.
type Options struct {
	Config  *models.ClientConfig
	Backend Backend
	// Channel may be nil, in which case no push events are received.
	Channel Channel
	Now     func() time.Time
}

// stateNotifier is implemented by channels that report connectivity.
type stateNotifier interface {
	OnState(fn func(connected bool))
}

// App owns the client state and serializes every mutation.
type App struct {
	cfg      *models.ClientConfig
	backend  Backend
	channel  Channel
	now      func() time.Time
	defects  map[string]bool
	buffer   *EventBuffer
	gateway  *Gateway
	listener *Listener

	mu             sync.Mutex
	ctx            context.Context
	stop           context.CancelFunc
	version        uint64
	tab            Tab
	session        *StreamSession
	frameCancel    context.CancelFunc
	meter          *rateMeter
	lastFrameEmit  time.Time
	poller         *Poller
	pollGen        uint64
	stats          models.Stats
	info           models.BackendInfo
	edit           models.InferenceSettings
	ack            models.InferenceSettings
	settingsLoaded bool
	saving         bool
	preview        models.Attachment
	channelUp      bool
	onChange       func(Snapshot)
	started        bool
	closed         bool
}

// New creates an App. Nothing runs until Start.
func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if opts.Backend == nil {
		return nil, errors.New("backend is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	ctx, stop := context.WithCancel(context.Background())
	a := &App{
		cfg:     opts.Config,
		backend: opts.Backend,
		channel: opts.Channel,
		now:     now,
		defects: make(map[string]bool, len(opts.Config.DefectTitles)),
		buffer:  NewEventBuffer(opts.Config.BufferCapacity),
		ctx:     ctx,
		stop:    stop,
		tab:     TabDashboard,
		session: NewStreamSession(opts.Backend.StreamURL()),
		meter:   newRateMeter(3 * time.Second),
		edit:    models.DefaultInferenceSettings(),
		ack:     models.DefaultInferenceSettings(),
	}
	for _, t := range opts.Config.DefectTitles {
		a.defects[t] = true
	}
	a.gateway = NewGateway(opts.Backend, opts.Config.HistoryLines, a.sink("action"), now)
	if opts.Channel != nil {
		a.listener = NewListener(opts.Channel, opts.Config.Channel.Event, a.ingestPush, now)
	}
	return a, nil
}

// OnChange registers the single observer notified after every mutation.
// Notifications may arrive from any goroutine; Version orders them.
func (a *App) OnChange(fn func(Snapshot)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onChange = fn
}

// Start subscribes to the push channel. The App is closed when ctx ends.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return errors.New("app closed")
	}
	if a.started {
		a.mu.Unlock()
		return nil
	}
	a.started = true
	a.mu.Unlock()

	if n, ok := a.channel.(stateNotifier); ok {
		n.OnState(a.setChannelState)
	}
	if a.listener != nil {
		if err := a.listener.Start(); err != nil {
			return err
		}
	}
	context.AfterFunc(ctx, a.Close)
	log.Printf("[app] started (backend=%s)", a.backend.StreamURL())
	return nil
}

// Close stops streaming, polling and the push subscription.
func (a *App) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	a.stopFramesLocked()
	if a.poller != nil {
		a.poller.Stop()
	}
	a.pollGen++
	a.stop()
	a.mu.Unlock()

	if a.listener != nil {
		a.listener.Close()
	}
	log.Printf("[app] closed")
}

// update runs fn under the state lock and notifies the observer when fn
// reports a change.
func (a *App) update(fn func() bool) {
	a.mu.Lock()
	if !fn() {
		a.mu.Unlock()
		return
	}
	a.version++
	snap := a.snapshotLocked()
	cb := a.onChange
	a.mu.Unlock()

	if cb != nil {
		cb(snap)
	}
}

// Snapshot returns the current view.
func (a *App) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *App) snapshotLocked() Snapshot {
	return Snapshot{
		Version:          a.version,
		Tab:              a.tab,
		Stream:           a.session.State(),
		Stats:            a.stats,
		Entries:          a.buffer.Entries(),
		BufferCap:        a.buffer.Cap(),
		Settings:         a.edit,
		AckSettings:      a.ack,
		SettingsDirty:    a.edit != a.ack,
		SettingsSaving:   a.saving,
		SettingsLoaded:   a.settingsLoaded,
		Preview:          a.preview,
		Backend:          a.info,
		ChannelConnected: a.channelUp,
	}
}

// sink returns an entry writer labelled with source for metrics.
func (a *App) sink(source string) func(models.LogEntry) {
	return func(e models.LogEntry) {
		a.update(func() bool {
			a.buffer.Append(e)
			observability.EntriesIngested.WithLabelValues(source).Inc()
			observability.BufferEntries.Set(float64(a.buffer.Len()))
			return true
		})
	}
}

func (a *App) ingestPush(e models.LogEntry) {
	a.update(func() bool {
		if a.closed {
			return false
		}
		a.buffer.Append(e)
		if a.defects[e.Title] {
			a.stats.DefectCount++
		}
		observability.EntriesIngested.WithLabelValues("push").Inc()
		observability.BufferEntries.Set(float64(a.buffer.Len()))
		return true
	})
}

func (a *App) setChannelState(up bool) {
	if up {
		observability.ChannelConnected.Set(1)
	} else {
		observability.ChannelConnected.Set(0)
	}
	a.update(func() bool {
		if a.channelUp == up {
			return false
		}
		a.channelUp = up
		return true
	})
}

// SetTab switches the visible view. It returns true when the settings view
// was just activated and its values should be loaded.
func (a *App) SetTab(t Tab) (settingsActivated bool) {
	a.update(func() bool {
		if t == a.tab {
			return false
		}
		a.tab = t
		settingsActivated = t == TabSettings
		return true
	})
	return settingsActivated
}

// ToggleStreaming flips the streaming intent and returns the new value.
func (a *App) ToggleStreaming() bool {
	var on bool
	a.update(func() bool {
		on = !a.session.Active()
		if !a.setStreamingLocked(on) {
			on = a.session.Active()
			return false
		}
		return true
	})
	return on
}

// SetStreaming sets the streaming intent. Turning it on requests the live
// resource and starts polling; turning it off cancels both.
func (a *App) SetStreaming(on bool) {
	a.update(func() bool { return a.setStreamingLocked(on) })
}

func (a *App) setStreamingLocked(on bool) bool {
	if a.closed && on {
		return false
	}
	res, changed := a.session.SetActive(on)
	if !changed {
		return false
	}
	a.stopFramesLocked()
	if a.poller != nil {
		a.poller.Stop()
		a.poller = nil
	}
	a.pollGen++
	if on {
		a.startFramesLocked(res)
		a.poller = NewPoller(a.cfg.PollInterval, a.pollTask(a.pollGen))
		a.poller.Start()
		log.Printf("[app] streaming on (%s)", res.URL)
	} else {
		log.Printf("[app] streaming off")
	}
	return true
}

// RetryStream requests a fresh live resource while streaming.
func (a *App) RetryStream() {
	a.update(func() bool {
		if !a.session.Active() {
			return false
		}
		a.stopFramesLocked()
		a.startFramesLocked(a.session.Reissue())
		return true
	})
}

func (a *App) stopFramesLocked() {
	if a.frameCancel != nil {
		a.frameCancel()
		a.frameCancel = nil
	}
}

func (a *App) startFramesLocked(res Resource) {
	if res.Empty() {
		return
	}
	ctx, cancel := context.WithCancel(a.ctx)
	a.frameCancel = cancel
	a.meter.reset()
	go a.watchFrames(ctx, res)
}

func (a *App) watchFrames(ctx context.Context, res Resource) {
	fr, err := a.backend.OpenFrames(ctx, res.URL)
	if err != nil {
		if ctx.Err() == nil {
			a.frameFailed(res, err)
		}
		return
	}
	defer fr.Close()

	received := 0
	for {
		if _, err := fr.Next(); err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, io.EOF) && received > 0 {
				log.Printf("[stream] %s ended after %d frames", res.URL, received)
				return
			}
			a.frameFailed(res, err)
			return
		}
		received++
		a.frameLoaded(res)
	}
}

func (a *App) frameLoaded(res Resource) {
	observability.FramesReceived.Inc()
	a.update(func() bool {
		if res != a.session.Resource() {
			return false
		}
		now := a.now()
		a.meter.tick(now)
		if a.session.FrameLoaded(res) || now.Sub(a.lastFrameEmit) >= frameNotifyInterval {
			a.lastFrameEmit = now
			return true
		}
		return false
	})
}

func (a *App) frameFailed(res Resource, err error) {
	a.update(func() bool {
		if !a.session.FrameFailed(res, err) {
			return false
		}
		observability.StreamErrors.Inc()
		log.Printf("[stream] %s failed: %v", res.URL, err)
		return true
	})
}

func (a *App) pollTask(gen uint64) func(ctx context.Context) {
	return func(ctx context.Context) {
		report, err := a.backend.Status(ctx)
		a.applyStatus(gen, report, err)
	}
}

func (a *App) applyStatus(gen uint64, r *models.StatusReport, err error) {
	a.update(func() bool {
		if gen != a.pollGen || !a.session.Active() || a.closed {
			observability.StatusPolls.WithLabelValues("discarded").Inc()
			return false
		}
		if err != nil {
			observability.StatusPolls.WithLabelValues("error").Inc()
			log.Printf("[poller] status failed: %v", err)
			if !a.info.Reachable {
				return false
			}
			a.info.Reachable = false
			return true
		}
		observability.StatusPolls.WithLabelValues("ok").Inc()

		a.info = models.BackendInfo{
			Reachable:       true,
			CameraConnected: r.CameraConnected,
			ModelLoaded:     r.ModelLoaded,
			Device:          r.Device,
		}
		if r.CameraConnected {
			if r.FPS != nil {
				a.stats.FPS = *r.FPS
			} else {
				a.stats.FPS = math.Round(a.meter.rate(a.now())*10) / 10
			}
			if r.CPU != nil {
				a.stats.CPU = *r.CPU
			}
		}
		return true
	})
}

// Preview selects an attachment for display. Absent attachments are ignored.
func (a *App) Preview(att models.Attachment) {
	a.update(func() bool {
		if !att.Present() || att == a.preview {
			return false
		}
		a.preview = att
		return true
	})
}

// ClosePreview clears the preview selection.
func (a *App) ClosePreview() {
	a.update(func() bool {
		if !a.preview.Present() {
			return false
		}
		a.preview = models.NoAttachment()
		return true
	})
}

// EditSettings applies fn to the settings edit buffer.
func (a *App) EditSettings(fn func(models.InferenceSettings) models.InferenceSettings) {
	a.update(func() bool {
		next := fn(a.edit)
		if next == a.edit {
			return false
		}
		a.edit = next
		return true
	})
}

// SubmitImage sends an image for inference and previews the result.
func (a *App) SubmitImage(ctx context.Context, filename string, image io.Reader) error {
	att, err := a.gateway.SubmitImage(ctx, filename, image)
	if err != nil {
		return err
	}
	a.Preview(att)
	return nil
}

// SubmitFile reads path and submits it with SubmitImage.
func (a *App) SubmitFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	return a.SubmitImage(ctx, filepath.Base(path), f)
}

// FetchLogs replaces the buffer with the backend's history.
func (a *App) FetchLogs(ctx context.Context) error {
	entries, err := a.gateway.FetchLogs(ctx)
	if err != nil {
		return err
	}
	a.update(func() bool {
		a.buffer.Replace(entries)
		observability.BufferEntries.Set(float64(a.buffer.Len()))
		return true
	})
	return nil
}

// LoadSettings reads the backend settings into both the acknowledged copy
// and the edit buffer. Zero fields keep their current value.
func (a *App) LoadSettings(ctx context.Context) error {
	s, err := a.gateway.LoadSettings(ctx)
	if err != nil {
		return err
	}
	a.update(func() bool {
		merged := a.ack
		if s.ConfidenceThreshold > 0 {
			merged.ConfidenceThreshold = s.ConfidenceThreshold
		}
		if s.InferenceResolution > 0 {
			merged.InferenceResolution = s.InferenceResolution
		}
		a.ack = merged
		if !a.saving {
			a.edit = merged
		}
		a.settingsLoaded = true
		return true
	})
	return nil
}

// SaveSettings posts the edit buffer. Only one save may be in flight.
func (a *App) SaveSettings(ctx context.Context) error {
	var (
		sent   models.InferenceSettings
		reject error
	)
	a.update(func() bool {
		if a.saving {
			reject = ErrSaveInFlight
			return false
		}
		sent = a.edit
		if err := sent.Validate(); err != nil {
			reject = err
			return false
		}
		a.saving = true
		return true
	})
	if reject != nil {
		return reject
	}

	ack, err := a.gateway.SaveSettings(ctx, sent)
	a.update(func() bool {
		a.saving = false
		if err == nil {
			a.ack = ack
			if a.edit == sent {
				a.edit = ack
			}
		}
		return true
	})
	return err
}
