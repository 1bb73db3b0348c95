// Package metrics exposes encoder session statistics through Prometheus.
package metrics

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stats holds the counters of one encoder session.
type Stats struct {
	// Encode loop
	FramesSubmitted atomic.Uint64
	PacketsProduced atomic.Uint64
	BytesProduced   atomic.Uint64
	Keyframes       atomic.Uint64
	NoOutput        atomic.Uint64 // encode calls that produced no packet
	FramesDropped   atomic.Uint64 // frames refused by a full input queue

	// Errors
	EncodeErrors atomic.Uint64

	// Lifecycle
	PacketsDrained   atomic.Uint64 // packets discarded at teardown
	Reconfigurations atomic.Uint64

	// Last encode call latency in microseconds
	EncodeLatencyUs atomic.Uint64

	registry *prometheus.Registry
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	FramesSubmitted  uint64
	PacketsProduced  uint64
	BytesProduced    uint64
	Keyframes        uint64
	NoOutput         uint64
	FramesDropped    uint64
	EncodeErrors     uint64
	PacketsDrained   uint64
	Reconfigurations uint64
}

// New creates a Stats instance with its own registry. labels are attached
// to every metric, typically the encoder name and codec.
func New(labels prometheus.Labels) *Stats {
	s := &Stats{
		registry: prometheus.NewRegistry(),
	}
	s.Register(s.registry, labels)
	return s
}

// Register registers the session metrics with reg.
func (s *Stats) Register(reg prometheus.Registerer, labels prometheus.Labels) {
	counter := func(name, help string, v *atomic.Uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Name:        name,
				Help:        help,
				ConstLabels: labels,
			},
			func() float64 { return float64(v.Load()) },
		)
	}

	reg.MustRegister(
		counter("hwenc_frames_submitted_total", "Total frames submitted to the encoder", &s.FramesSubmitted),
		counter("hwenc_packets_produced_total", "Total packets returned to the caller", &s.PacketsProduced),
		counter("hwenc_bytes_produced_total", "Total bitstream bytes returned to the caller", &s.BytesProduced),
		counter("hwenc_keyframes_total", "Total keyframe packets", &s.Keyframes),
		counter("hwenc_no_output_total", "Encode calls that produced no packet", &s.NoOutput),
		counter("hwenc_frames_dropped_total", "Frames refused by a full encoder queue", &s.FramesDropped),
		counter("hwenc_encode_errors_total", "Encode calls that failed", &s.EncodeErrors),
		counter("hwenc_packets_drained_total", "Packets discarded while draining at teardown", &s.PacketsDrained),
		counter("hwenc_reconfigurations_total", "Live bitrate changes applied", &s.Reconfigurations),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name:        "hwenc_encode_latency_us",
				Help:        "Latency of the last encode call in microseconds",
				ConstLabels: labels,
			},
			func() float64 { return float64(s.EncodeLatencyUs.Load()) },
		),
	)
}

// ObservePacket records a packet handed to the caller.
func (s *Stats) ObservePacket(size int, keyframe bool) {
	s.PacketsProduced.Add(1)
	s.BytesProduced.Add(uint64(size))
	if keyframe {
		s.Keyframes.Add(1)
	}
}

// UpdateEncodeLatency records the duration of the last encode call.
func (s *Stats) UpdateEncodeLatency(d time.Duration) {
	s.EncodeLatencyUs.Store(uint64(d.Microseconds()))
}

// Snapshot returns the current counter values.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		FramesSubmitted:  s.FramesSubmitted.Load(),
		PacketsProduced:  s.PacketsProduced.Load(),
		BytesProduced:    s.BytesProduced.Load(),
		Keyframes:        s.Keyframes.Load(),
		NoOutput:         s.NoOutput.Load(),
		FramesDropped:    s.FramesDropped.Load(),
		EncodeErrors:     s.EncodeErrors.Load(),
		PacketsDrained:   s.PacketsDrained.Load(),
		Reconfigurations: s.Reconfigurations.Load(),
	}
}

// Registry returns the registry created by New.
func (s *Stats) Registry() *prometheus.Registry {
	return s.registry
}

// Handler returns the Prometheus HTTP handler
func (s *Stats) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// StartServer starts the metrics HTTP server
func (s *Stats) StartServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.Handler())
	return http.ListenAndServe(addr, mux)
}
