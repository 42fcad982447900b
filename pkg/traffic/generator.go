// Package traffic defines the generator-agnostic contract for driving test
// traffic through the network under verification. Backends (Ixia, Spirent,
// TRex) implement Generator; callers work against the interface and never
// see vendor API details.
package traffic

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Default stream parameters for profiles built with NewProfile.
const (
	DefaultSrcIP     = "10.0.0.1"
	DefaultDstIP     = "10.0.0.2"
	DefaultSrcPort   = 10000
	DefaultDstPort   = 20000
	DefaultProtocol  = "udp"
	DefaultFrameSize = 256
	DefaultRatePPS   = 1000
	DefaultDuration  = 60 * time.Second
)

// Profile describes one traffic stream: endpoints, L4 protocol, frame size,
// rate, and how long to transmit. A zero Duration means continuous.
type Profile struct {
	Name      string        `json:"name"`
	SrcIP     string        `json:"src_ip"`
	DstIP     string        `json:"dst_ip"`
	SrcPort   int           `json:"src_port"`
	DstPort   int           `json:"dst_port"`
	Protocol  string        `json:"protocol"`
	FrameSize int           `json:"frame_size"`
	RatePPS   int           `json:"rate_pps"`
	Duration  time.Duration `json:"duration"`
	VLANID    int           `json:"vlan_id,omitempty"`
	DSCP      int           `json:"dscp,omitempty"`
}

// NewProfile returns a named stream profile with the default parameters.
func NewProfile(name string) Profile {
	return Profile{
		Name:      name,
		SrcIP:     DefaultSrcIP,
		DstIP:     DefaultDstIP,
		SrcPort:   DefaultSrcPort,
		DstPort:   DefaultDstPort,
		Protocol:  DefaultProtocol,
		FrameSize: DefaultFrameSize,
		RatePPS:   DefaultRatePPS,
		Duration:  DefaultDuration,
	}
}

// Stats aggregates one stream's counters after (or during) a run. Latency
// figures are in microseconds.
type Stats struct {
	StreamName   string  `json:"stream_name"`
	TxFrames     int64   `json:"tx_frames"`
	RxFrames     int64   `json:"rx_frames"`
	TxRatePPS    float64 `json:"tx_rate_pps"`
	RxRatePPS    float64 `json:"rx_rate_pps"`
	LossFrames   int64   `json:"loss_frames"`
	LossPercent  float64 `json:"loss_percent"`
	MinLatencyUs float64 `json:"min_latency_us"`
	MaxLatencyUs float64 `json:"max_latency_us"`
	AvgLatencyUs float64 `json:"avg_latency_us"`
	JitterUs     float64 `json:"jitter_us"`
}

// Generator is the backend contract. An empty streamID addresses all
// configured streams. Disconnect must be idempotent.
type Generator interface {
	Connect(ctx context.Context) error
	Disconnect() error
	ConfigureStream(profile Profile) (string, error)
	StartTraffic(streamID string) error
	StopTraffic(streamID string) error
	GetStatistics(streamID string) ([]Stats, error)
	ClearStatistics() error
}

// WithGenerator connects, invokes fn, and disconnects afterward. Disconnect
// failures are logged, never returned; fn's error passes through.
func WithGenerator(ctx context.Context, gen Generator, log *logrus.Entry, fn func(Generator) error) error {
	if err := gen.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		if err := gen.Disconnect(); err != nil && log != nil {
			log.Warnf("Traffic generator disconnect failed: %v", err)
		}
	}()
	return fn(gen)
}

// RunProfile drives one complete measurement: configure the stream, reset
// counters, transmit for the profile's duration, stop, and collect that
// stream's statistics. The generator must already be connected. Canceling
// ctx stops traffic early and returns the context error. A zero Duration
// transmits until ctx is canceled.
func RunProfile(ctx context.Context, gen Generator, profile Profile, log *logrus.Entry) ([]Stats, error) {
	streamID, err := gen.ConfigureStream(profile)
	if err != nil {
		return nil, fmt.Errorf("configure stream %q: %w", profile.Name, err)
	}
	if err := gen.ClearStatistics(); err != nil {
		return nil, fmt.Errorf("clear statistics: %w", err)
	}
	if err := gen.StartTraffic(streamID); err != nil {
		return nil, fmt.Errorf("start stream %q: %w", profile.Name, err)
	}
	if log != nil {
		log.Infof("Stream %s transmitting at %d pps for %s", profile.Name, profile.RatePPS, profile.Duration)
	}

	canceled := waitForRun(ctx, profile.Duration)
	if err := gen.StopTraffic(streamID); err != nil {
		return nil, fmt.Errorf("stop stream %q: %w", profile.Name, err)
	}
	if canceled {
		return nil, ctx.Err()
	}
	return gen.GetStatistics(streamID)
}

// waitForRun blocks for the transmit window and reports whether ctx was
// canceled before it elapsed. A zero duration waits on ctx alone.
func waitForRun(ctx context.Context, duration time.Duration) bool {
	if duration <= 0 {
		<-ctx.Done()
		return true
	}
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return true
	case <-timer.C:
		return false
	}
}
