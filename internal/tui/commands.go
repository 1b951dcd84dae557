package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func submitImageCmd(app controller, path string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := app.SubmitFile(ctx, path); err != nil {
			return ActionDoneMsg{Action: actionUpload, Err: fmt.Errorf("upload failed: %w", err)}
		}
		return ActionDoneMsg{Action: actionUpload}
	}
}

func fetchLogsCmd(app controller, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := app.FetchLogs(ctx); err != nil {
			return ActionDoneMsg{Action: actionFetchLogs, Err: fmt.Errorf("failed to load logs: %w", err)}
		}
		return ActionDoneMsg{Action: actionFetchLogs}
	}
}

func loadSettingsCmd(app controller, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := app.LoadSettings(ctx); err != nil {
			return ActionDoneMsg{Action: actionLoadSettings, Err: fmt.Errorf("failed to load settings: %w", err)}
		}
		return ActionDoneMsg{Action: actionLoadSettings}
	}
}

func saveSettingsCmd(app controller, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := app.SaveSettings(ctx); err != nil {
			return ActionDoneMsg{Action: actionSaveSettings, Err: fmt.Errorf("failed to save settings: %w", err)}
		}
		return ActionDoneMsg{Action: actionSaveSettings}
	}
}

func spinnerTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(_ time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

func clearErrorAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(_ time.Time) tea.Msg {
		return ClearErrorMsg{}
	})
}

func clearSavedAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(_ time.Time) tea.Msg {
		return ClearSavedMsg{}
	})
}
