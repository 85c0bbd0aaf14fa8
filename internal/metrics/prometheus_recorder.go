package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "minbar"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	mu             sync.Mutex
	lastMode       string
	lastAudio      string
	displayMode    *prom.GaugeVec
	audioState     *prom.GaugeVec
	transitions    *prom.CounterVec
	arrivals       *prom.CounterVec
	missedTicks    prom.Counter
	playbackErrors prom.Counter
	tableRefresh   *prom.HistogramVec
	secondsToNext  prom.Gauge
	droppedEvents  prom.Counter
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder constructs and registers the engine metrics.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.displayMode = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "display_mode",
			Help:      "1 for the active full-screen mode, 0 otherwise",
		}, []string{"mode"})
		pr.audioState = prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "audio_state",
			Help:      "1 for the active audio cue state, 0 otherwise",
		}, []string{"state"})
		pr.transitions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Display and audio transitions",
		}, []string{"kind", "from", "to"})
		pr.arrivals = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "arrivals_total",
			Help:      "Prayer arrivals that started a display sequence",
		}, []string{"prayer"})
		pr.missedTicks = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "missed_ticks_total",
			Help:      "One-second ticks that arrived later than the arrival window",
		})
		pr.playbackErrors = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "playback_errors_total",
			Help:      "Audio cues the player failed to start",
		})
		pr.tableRefresh = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "table_refresh_duration_seconds",
			Help:      "Prayer table refresh duration by result",
			Buckets:   prom.DefBuckets,
		}, []string{"result"})
		pr.secondsToNext = prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "seconds_to_next_prayer",
			Help:      "Seconds until the entry flagged next",
		})
		pr.droppedEvents = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_events_total",
			Help:      "Engine events dropped because observers fell behind",
		})
		reg.MustRegister(pr.displayMode, pr.audioState, pr.transitions, pr.arrivals, pr.missedTicks,
			pr.playbackErrors, pr.tableRefresh, pr.secondsToNext, pr.droppedEvents)
	})
	return pr
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusRecorder) SetDisplayMode(mode string) {
	if p == nil || p.displayMode == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastMode != "" && p.lastMode != mode {
		p.displayMode.WithLabelValues(p.lastMode).Set(0)
	}
	p.displayMode.WithLabelValues(mode).Set(1)
	p.lastMode = mode
}

func (p *PrometheusRecorder) SetAudioState(state string) {
	if p == nil || p.audioState == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastAudio != "" && p.lastAudio != state {
		p.audioState.WithLabelValues(p.lastAudio).Set(0)
	}
	p.audioState.WithLabelValues(state).Set(1)
	p.lastAudio = state
}

func (p *PrometheusRecorder) IncTransition(kind, from, to string) {
	if p == nil || p.transitions == nil {
		return
	}
	p.transitions.WithLabelValues(kind, from, to).Inc()
}

func (p *PrometheusRecorder) IncArrival(prayer string) {
	if p == nil || p.arrivals == nil {
		return
	}
	p.arrivals.WithLabelValues(prayer).Inc()
}

func (p *PrometheusRecorder) IncMissedTick() {
	if p == nil || p.missedTicks == nil {
		return
	}
	p.missedTicks.Inc()
}

func (p *PrometheusRecorder) IncPlaybackError() {
	if p == nil || p.playbackErrors == nil {
		return
	}
	p.playbackErrors.Inc()
}

func (p *PrometheusRecorder) ObserveTableRefresh(d time.Duration, success bool) {
	if p == nil || p.tableRefresh == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.tableRefresh.WithLabelValues(res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetSecondsToNextPrayer(s float64) {
	if p == nil || p.secondsToNext == nil {
		return
	}
	p.secondsToNext.Set(s)
}

func (p *PrometheusRecorder) IncDroppedEvent() {
	if p == nil || p.droppedEvents == nil {
		return
	}
	p.droppedEvents.Inc()
}
