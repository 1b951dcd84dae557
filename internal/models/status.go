package models

// StatusReport is the backend's answer to a status poll.
// FPS and CPU are only set by backends that report real telemetry.
type StatusReport struct {
	CameraConnected bool     `json:"camera_connected"`
	ModelLoaded     bool     `json:"model_loaded"`
	Device          string   `json:"device,omitempty"`
	FPS             *float64 `json:"fps,omitempty"`
	CPU             *float64 `json:"cpu,omitempty"`
}

// Stats are the dashboard gauges.
type Stats struct {
	FPS         float64 `json:"fps"`
	CPU         float64 `json:"cpu"`
	DefectCount int     `json:"defect_count"`
}

// BackendInfo is the non-gauge part of the last successful status poll.
type BackendInfo struct {
	Reachable       bool   `json:"reachable"`
	CameraConnected bool   `json:"camera_connected"`
	ModelLoaded     bool   `json:"model_loaded"`
	Device          string `json:"device"`
}
