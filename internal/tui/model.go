package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nexus-vision/vigil/internal/models"
	"github.com/nexus-vision/vigil/internal/monitor"
)

// controller is the part of *monitor.App the TUI drives.
type controller interface {
	Snapshot() monitor.Snapshot
	SetTab(t monitor.Tab) bool
	ToggleStreaming() bool
	RetryStream()
	Preview(att models.Attachment)
	ClosePreview()
	EditSettings(fn func(models.InferenceSettings) models.InferenceSettings)
	SubmitFile(ctx context.Context, path string) error
	FetchLogs(ctx context.Context) error
	LoadSettings(ctx context.Context) error
	SaveSettings(ctx context.Context) error
}

// Model is the root Bubbletea model for the TUI.
type Model struct {
	app     controller
	baseURL string
	timeout time.Duration

	// Latest client state
	snap       monitor.Snapshot
	lastResult models.Attachment

	// UI state
	focusedPanel  int         // 0=main view, 1=alert feed
	activeOverlay overlayKind
	splitRatio    float64     // Default 0.62
	width         int
	height        int

	// Status display
	err       error
	showSaved bool

	// Child components
	dashboard    *Dashboard
	feed         *AlertFeed
	logViewer    *LogViewer
	settingsForm *SettingsForm
	uploadForm   *UploadForm

	// Program reference for goroutine Send()
	program *programRef

	// Spinner state
	spinnerRunning bool
	spinnerFrame   int
}

// NewModel creates the initial TUI model.
func NewModel(app controller, baseURL string, timeout time.Duration, program *programRef) Model {
	m := Model{
		app:          app,
		baseURL:      baseURL,
		timeout:      timeout,
		splitRatio:   0.62,
		dashboard:    NewDashboard(),
		feed:         NewAlertFeed(),
		logViewer:    NewLogViewer(),
		settingsForm: NewSettingsForm(),
		program:      program,
	}
	m.applySnapshot(app.Snapshot())
	return m
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	if m.snap.Tab == monitor.TabSettings && !m.snap.SettingsLoaded {
		return loadSettingsCmd(m.app, m.timeout)
	}
	return nil
}

// Update processes messages and returns an updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	// ── Window resize ──────────────────────────────────────────────
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateDimensions()
		return m, nil

	// ── Key events ─────────────────────────────────────────────────
	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		if cmd := m.maybeSpin(); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	// ── Client state ───────────────────────────────────────────────
	case SnapshotMsg:
		// Local actions refresh directly, so a queued notification can be
		// older than what is already shown.
		if msg.Snapshot.Version < m.snap.Version {
			return m, nil
		}
		m.applySnapshot(msg.Snapshot)
		return m, m.maybeSpin()

	case ActionDoneMsg:
		m.applySnapshot(m.app.Snapshot())
		if msg.Action == actionFetchLogs {
			m.logViewer.SetLoading(false)
		}
		if msg.Err != nil {
			if errors.Is(msg.Err, monitor.ErrSaveInFlight) {
				return m, nil
			}
			m.err = msg.Err
			return m, clearErrorAfter(5 * time.Second)
		}
		if msg.Action == actionSaveSettings {
			m.showSaved = true
			return m, clearSavedAfter(3 * time.Second)
		}
		return m, nil

	// ── Spinner tick ──────────────────────────────────────────────
	case spinnerTickMsg:
		if m.snap.Stream.Phase == monitor.PhaseConnecting {
			m.spinnerFrame++
			return m, spinnerTick()
		}
		m.spinnerRunning = false
		return m, nil

	case ClearErrorMsg:
		m.err = nil
		return m, nil

	case ClearSavedMsg:
		m.showSaved = false
		return m, nil
	}

	return m, nil
}

// applySnapshot adopts s and syncs the child components. A newly selected
// preview opens the preview overlay unless another overlay is up.
func (m *Model) applySnapshot(s monitor.Snapshot) {
	prev := m.snap.Preview
	m.snap = s
	m.feed.SetEntries(s.Entries, s.BufferCap)
	m.logViewer.SetEntries(s.Entries)

	if s.Preview.Present() {
		m.lastResult = s.Preview
		if s.Preview != prev && m.activeOverlay == overlayNone {
			m.activeOverlay = overlayPreview
		}
	} else if m.activeOverlay == overlayPreview {
		m.activeOverlay = overlayNone
	}
}

func (m *Model) refresh() {
	m.applySnapshot(m.app.Snapshot())
}

func (m *Model) maybeSpin() tea.Cmd {
	if m.snap.Stream.Phase == monitor.PhaseConnecting && !m.spinnerRunning {
		m.spinnerRunning = true
		return spinnerTick()
	}
	return nil
}

// handleKey processes key events.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, globalKeys.Quit) {
		return m.doQuit()
	}

	// Overlay captures everything else
	if m.activeOverlay != overlayNone {
		return m.handleOverlayKey(msg)
	}

	switch {
	case key.Matches(msg, globalKeys.Help):
		m.activeOverlay = overlayHelp
		return nil

	case key.Matches(msg, globalKeys.Tab):
		m.focusedPanel = 1 - m.focusedPanel
		return nil

	case key.Matches(msg, tabSwitchKeys.Tab1):
		return m.setTab(monitor.TabDashboard)
	case key.Matches(msg, tabSwitchKeys.Tab2):
		return m.setTab(monitor.TabLogs)
	case key.Matches(msg, tabSwitchKeys.Tab3):
		return m.setTab(monitor.TabSettings)
	}

	if m.focusedPanel == 1 {
		return m.handleFeedKey(msg)
	}

	switch m.snap.Tab {
	case monitor.TabDashboard:
		return m.handleDashboardKey(msg)
	case monitor.TabLogs:
		return m.handleLogKey(msg)
	case monitor.TabSettings:
		return m.handleSettingsKey(msg)
	}
	return nil
}

func (m *Model) setTab(t monitor.Tab) tea.Cmd {
	m.focusedPanel = 0
	activated := m.app.SetTab(t)
	m.refresh()
	if activated {
		return loadSettingsCmd(m.app, m.timeout)
	}
	return nil
}

func (m *Model) handleDashboardKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, dashboardKeys.Stream):
		m.app.ToggleStreaming()
		m.refresh()
	case key.Matches(msg, dashboardKeys.Retry):
		m.app.RetryStream()
		m.refresh()
	case key.Matches(msg, dashboardKeys.Upload):
		m.openUploadForm()
	case key.Matches(msg, dashboardKeys.Open):
		m.openPreview(m.lastResult)
	}
	return nil
}

func (m *Model) handleFeedKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, listKeys.Up):
		m.feed.MoveUp()
	case key.Matches(msg, listKeys.Down):
		m.feed.MoveDown()
	case key.Matches(msg, listKeys.Enter), key.Matches(msg, listKeys.Preview):
		if e := m.feed.Selected(); e != nil {
			m.openPreview(e.Attachment)
		}
	}
	return nil
}

func (m *Model) handleLogKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, listKeys.Up):
		m.logViewer.MoveUp()
	case key.Matches(msg, listKeys.Down):
		m.logViewer.MoveDown()
	case key.Matches(msg, listKeys.Enter):
		if !m.logViewer.IsViewing() {
			m.logViewer.Open()
		}
	case key.Matches(msg, listKeys.Back):
		if m.logViewer.IsViewing() {
			m.logViewer.GoBack()
		}
	case key.Matches(msg, listKeys.Preview):
		if e := m.logViewer.Selected(); e != nil {
			m.openPreview(e.Attachment)
		}
	case key.Matches(msg, listKeys.Refresh):
		m.logViewer.SetLoading(true)
		return fetchLogsCmd(m.app, m.timeout)
	}
	return nil
}

func (m *Model) handleSettingsKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, settingsKeys.Up):
		m.settingsForm.MoveUp()
	case key.Matches(msg, settingsKeys.Down):
		m.settingsForm.MoveDown()
	case key.Matches(msg, settingsKeys.Decrease):
		m.app.EditSettings(m.settingsForm.Adjust(-1))
		m.refresh()
	case key.Matches(msg, settingsKeys.Increase):
		m.app.EditSettings(m.settingsForm.Adjust(1))
		m.refresh()
	case key.Matches(msg, settingsKeys.Save):
		if m.snap.SettingsSaving || !m.snap.SettingsLoaded {
			return nil
		}
		return saveSettingsCmd(m.app, m.timeout)
	case key.Matches(msg, settingsKeys.Reload):
		return loadSettingsCmd(m.app, m.timeout)
	}
	return nil
}

func (m *Model) handleOverlayKey(msg tea.KeyMsg) tea.Cmd {
	switch m.activeOverlay {
	case overlayHelp:
		if key.Matches(msg, overlayKeys.Cancel) || key.Matches(msg, globalKeys.Help) {
			m.activeOverlay = overlayNone
		}
		return nil

	case overlayPreview:
		if key.Matches(msg, overlayKeys.Cancel) || key.Matches(msg, overlayKeys.Submit) {
			m.activeOverlay = overlayNone
			m.app.ClosePreview()
			m.refresh()
		}
		return nil

	case overlayUpload:
		return m.handleUploadKey(msg)
	}
	return nil
}

func (m *Model) handleUploadKey(msg tea.KeyMsg) tea.Cmd {
	if m.uploadForm == nil {
		m.activeOverlay = overlayNone
		return nil
	}
	switch {
	case key.Matches(msg, overlayKeys.Cancel):
		m.activeOverlay = overlayNone
		m.uploadForm = nil
		return nil
	case key.Matches(msg, overlayKeys.Submit):
		path, err := m.uploadForm.Path()
		if err != nil {
			return nil
		}
		m.activeOverlay = overlayNone
		m.uploadForm = nil
		return submitImageCmd(m.app, path, m.timeout)
	}
	return m.uploadForm.Update(msg)
}

func (m *Model) openUploadForm() {
	formWidth := m.width - 10
	if formWidth > 70 {
		formWidth = 70
	}
	if formWidth < 30 {
		formWidth = 30
	}
	m.uploadForm = NewUploadForm(formWidth)
	m.activeOverlay = overlayUpload
}

// openPreview selects att for display. Absent attachments do nothing.
func (m *Model) openPreview(att models.Attachment) {
	if !att.Present() {
		return
	}
	m.app.Preview(att)
	m.activeOverlay = overlayPreview
	m.refresh()
}

// doQuit clears the program ref so late notifications are dropped, then quits.
func (m *Model) doQuit() tea.Cmd {
	if m.program != nil {
		m.program.Clear()
	}
	return tea.Quit
}

// ── Dimension helpers ────────────────────────────────────────────

func (m *Model) updateDimensions() {
	layout := computeLayout(m.width, m.height, m.splitRatio)
	mainInner, innerHeight := layout.inner(layout.mainWidth)
	feedInner, _ := layout.inner(layout.feedWidth)

	m.dashboard.SetSize(mainInner, innerHeight)
	m.logViewer.SetSize(mainInner, innerHeight)
	m.settingsForm.SetSize(mainInner, innerHeight)
	m.feed.SetSize(feedInner, innerHeight)
}

// ── View ─────────────────────────────────────────────────────────

// View renders the TUI.
func (m Model) View() string {
	// Minimum size check
	if m.width < 80 || m.height < 24 {
		sizeStr := fmt.Sprintf("%dx%d", m.width, m.height)
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(colorYellow).
			Render(lipgloss.JoinVertical(lipgloss.Center,
				"Terminal too small",
				dimStyle.Render(
					"Need 80x24, have "+lipgloss.NewStyle().Bold(true).Render(sizeStr),
				),
			))
	}

	layout := computeLayout(m.width, m.height, m.splitRatio)

	header := renderHeader(m.snap, m.spinnerFrame, m.width)
	mainContent := m.renderMainPanel()
	feedContent := m.feed.View(m.focusedPanel == 1)
	panels := renderPanels(mainContent, feedContent, layout, m.focusedPanel)
	statusBar := renderStatusBar(&m, m.width)

	view := lipgloss.JoinVertical(lipgloss.Left, header, panels, statusBar)

	if box := m.overlayBox(); box != "" {
		view = renderOverlay(view, box, m.width, m.height)
	}

	return view
}

func (m Model) renderMainPanel() string {
	switch m.snap.Tab {
	case monitor.TabLogs:
		return m.logViewer.View()
	case monitor.TabSettings:
		return m.settingsForm.View(m.snap)
	default:
		return m.dashboard.View(m.snap, m.lastResult, m.spinnerFrame)
	}
}
