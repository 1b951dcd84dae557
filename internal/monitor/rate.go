package monitor

import "time"

// rateMeter estimates events per second over a sliding window.
type rateMeter struct {
	window time.Duration
	stamps []time.Time
}

func newRateMeter(window time.Duration) *rateMeter {
	return &rateMeter{window: window}
}

func (m *rateMeter) tick(now time.Time) {
	m.stamps = append(m.stamps, now)
	m.trim(now)
}

func (m *rateMeter) trim(now time.Time) {
	cut := 0
	for cut < len(m.stamps) && now.Sub(m.stamps[cut]) > m.window {
		cut++
	}
	if cut > 0 {
		m.stamps = append(m.stamps[:0], m.stamps[cut:]...)
	}
}

// rate returns events per second; zero until two events fall in the window.
func (m *rateMeter) rate(now time.Time) float64 {
	m.trim(now)
	if len(m.stamps) < 2 {
		return 0
	}
	span := m.stamps[len(m.stamps)-1].Sub(m.stamps[0])
	if span <= 0 {
		return 0
	}
	return float64(len(m.stamps)-1) / span.Seconds()
}

func (m *rateMeter) reset() { m.stamps = m.stamps[:0] }
