package monitor

// Phase is the lifecycle stage of the live video resource.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseConnecting Phase = "connecting"
	PhaseConnected  Phase = "connected"
	PhaseErrored    Phase = "errored"
)

// Resource identifies one request for the live video. Every reissue gets a
// new epoch, so signals from an earlier request never match the current one.
type Resource struct {
	URL   string
	Epoch uint64
}

// Empty reports whether no resource is requested.
func (r Resource) Empty() bool { return r.URL == "" }

// StreamState is the render-ready view of a StreamSession.
type StreamState struct {
	Active    bool   `json:"active"`
	Connected bool   `json:"connected"`
	Loading   bool   `json:"loading"`
	Errored   bool   `json:"errored"`
	Phase     Phase  `json:"phase"`
	Resource  string `json:"resource"`
	Frames    int    `json:"frames"`
	LastError string `json:"last_error,omitempty"`
}

// StreamSession tracks operator intent and load/error signals for the
// current resource. It is not safe for concurrent use; App guards it.
type StreamSession struct {
	liveURL string
	active  bool
	res     Resource
	epoch   uint64
	loading bool
	errored bool
	frames  int
	lastErr string
}

// NewStreamSession creates an idle session for liveURL.
func NewStreamSession(liveURL string) *StreamSession {
	return &StreamSession{liveURL: liveURL, loading: true}
}

// Active reports operator intent.
func (s *StreamSession) Active() bool { return s.active }

// Resource returns the current reference; empty while idle.
func (s *StreamSession) Resource() Resource { return s.res }

// SetActive applies the streaming toggle and returns the resource that must
// now be fetched (empty when turning off). changed is false when the intent
// did not change.
func (s *StreamSession) SetActive(on bool) (res Resource, changed bool) {
	if on == s.active {
		return s.res, false
	}
	s.active = on
	if on {
		return s.Reissue(), true
	}
	s.setResource(Resource{})
	return s.res, true
}

// Reissue replaces the resource with a fresh request for the live stream.
// It does nothing while idle.
func (s *StreamSession) Reissue() Resource {
	if !s.active {
		return s.res
	}
	s.epoch++
	s.setResource(Resource{URL: s.liveURL, Epoch: s.epoch})
	return s.res
}

func (s *StreamSession) setResource(r Resource) {
	s.res = r
	s.loading = true
	s.errored = false
	s.frames = 0
	s.lastErr = ""
}

// FrameLoaded records a frame for r. It returns true when this moved the
// session out of loading.
func (s *StreamSession) FrameLoaded(r Resource) bool {
	if r.Empty() || r != s.res || s.errored {
		return false
	}
	s.frames++
	if s.loading {
		s.loading = false
		return true
	}
	return false
}

// FrameFailed records a failure for r. Stale or repeated failures return
// false.
func (s *StreamSession) FrameFailed(r Resource, err error) bool {
	if r.Empty() || r != s.res || s.errored {
		return false
	}
	s.errored = true
	s.loading = false
	if err != nil {
		s.lastErr = err.Error()
	}
	return true
}

// State derives the render view.
func (s *StreamSession) State() StreamState {
	st := StreamState{
		Active:    s.active,
		Connected: s.active && !s.errored,
		Loading:   s.loading,
		Errored:   s.errored,
		Resource:  s.res.URL,
		Frames:    s.frames,
		LastError: s.lastErr,
	}
	switch {
	case !s.active:
		st.Phase = PhaseIdle
	case s.errored:
		st.Phase = PhaseErrored
	case s.loading:
		st.Phase = PhaseConnecting
	default:
		st.Phase = PhaseConnected
	}
	return st
}
