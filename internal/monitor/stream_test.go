package monitor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

const liveURL = "http://backend.test/video_feed"

func TestStreamSessionConnectedInvariant(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		steps func(s *StreamSession)
		phase Phase
	}{
		{name: "idle", steps: func(s *StreamSession) {}, phase: PhaseIdle},
		{name: "connecting", steps: func(s *StreamSession) { s.SetActive(true) }, phase: PhaseConnecting},
		{name: "connected", steps: func(s *StreamSession) {
			res, _ := s.SetActive(true)
			s.FrameLoaded(res)
		}, phase: PhaseConnected},
		{name: "errored", steps: func(s *StreamSession) {
			res, _ := s.SetActive(true)
			s.FrameFailed(res, boom)
		}, phase: PhaseErrored},
		{name: "errored after frames", steps: func(s *StreamSession) {
			res, _ := s.SetActive(true)
			s.FrameLoaded(res)
			s.FrameFailed(res, boom)
		}, phase: PhaseErrored},
		{name: "retry after error", steps: func(s *StreamSession) {
			res, _ := s.SetActive(true)
			s.FrameFailed(res, boom)
			s.Reissue()
		}, phase: PhaseConnecting},
		{name: "off after error", steps: func(s *StreamSession) {
			res, _ := s.SetActive(true)
			s.FrameFailed(res, boom)
			s.SetActive(false)
		}, phase: PhaseIdle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStreamSession(liveURL)
			tt.steps(s)
			st := s.State()
			assert.Equal(t, tt.phase, st.Phase)
			assert.Equal(t, st.Active && !st.Errored, st.Connected)
			if st.Errored {
				assert.False(t, st.Loading, "loading and errored are exclusive")
			}
		})
	}
}

func TestStreamSessionResourceChangeResetsFlags(t *testing.T) {
	s := NewStreamSession(liveURL)
	first, changed := s.SetActive(true)
	assert.True(t, changed)
	assert.Equal(t, liveURL, first.URL)

	s.FrameFailed(first, errors.New("refused"))
	assert.True(t, s.State().Errored)

	second := s.Reissue()
	assert.NotEqual(t, first, second)
	st := s.State()
	assert.True(t, st.Loading)
	assert.False(t, st.Errored)
	assert.Empty(t, st.LastError)

	s.SetActive(false)
	st = s.State()
	assert.Empty(t, st.Resource)
	assert.True(t, st.Loading)
	assert.False(t, st.Errored)
}

func TestStreamSessionIgnoresStaleSignals(t *testing.T) {
	s := NewStreamSession(liveURL)
	old, _ := s.SetActive(true)
	current := s.Reissue()

	assert.False(t, s.FrameFailed(old, errors.New("late failure")))
	assert.False(t, s.FrameLoaded(old))
	assert.Equal(t, PhaseConnecting, s.State().Phase)

	assert.True(t, s.FrameLoaded(current))
	assert.False(t, s.FrameLoaded(current), "only the first frame ends loading")
	assert.Equal(t, 2, s.State().Frames)

	s.SetActive(false)
	assert.False(t, s.FrameLoaded(current))
	assert.False(t, s.FrameFailed(Resource{}, errors.New("x")))
}

func TestStreamSessionIdempotentToggle(t *testing.T) {
	s := NewStreamSession(liveURL)
	_, changed := s.SetActive(false)
	assert.False(t, changed)

	res, _ := s.SetActive(true)
	again, changed := s.SetActive(true)
	assert.False(t, changed)
	assert.Equal(t, res, again)

	assert.True(t, s.Reissue() != res)
	s.SetActive(false)
	assert.True(t, s.Reissue().Empty(), "reissue while idle requests nothing")
}
