// Package metrics exposes engine observability hooks. Components hold a Recorder and
// default to NoopRecorder, so no nil checks are needed at call sites.
package metrics

import "time"

// Recorder receives engine measurements.
type Recorder interface {
	SetDisplayMode(mode string)
	SetAudioState(state string)
	IncTransition(kind, from, to string)
	IncArrival(prayer string)
	IncMissedTick()
	IncPlaybackError()
	ObserveTableRefresh(d time.Duration, success bool)
	SetSecondsToNextPrayer(s float64)
	IncDroppedEvent()
}

// NoopRecorder is the default when metrics are not configured.
type NoopRecorder struct{}

func (NoopRecorder) SetDisplayMode(string)                   {}
func (NoopRecorder) SetAudioState(string)                    {}
func (NoopRecorder) IncTransition(string, string, string)    {}
func (NoopRecorder) IncArrival(string)                       {}
func (NoopRecorder) IncMissedTick()                          {}
func (NoopRecorder) IncPlaybackError()                       {}
func (NoopRecorder) ObserveTableRefresh(time.Duration, bool) {}
func (NoopRecorder) SetSecondsToNextPrayer(float64)          {}
func (NoopRecorder) IncDroppedEvent()                        {}
