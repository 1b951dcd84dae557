package tui

import "github.com/nexus-vision/vigil/internal/monitor"

// SnapshotMsg carries the latest client state.
type SnapshotMsg struct {
	Snapshot monitor.Snapshot
}

// ActionDoneMsg reports the end of an operator action.
type ActionDoneMsg struct {
	Action string
	Err    error
}

// Action names used in ActionDoneMsg.
const (
	actionUpload       = "upload"
	actionFetchLogs    = "fetch_logs"
	actionLoadSettings = "load_settings"
	actionSaveSettings = "save_settings"
)

// ClearErrorMsg clears the error display.
type ClearErrorMsg struct{}

// ClearSavedMsg clears the "Saved" indicator.
type ClearSavedMsg struct{}

// spinnerTickMsg advances the connecting animation.
type spinnerTickMsg struct{}
