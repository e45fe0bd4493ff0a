package core

import (
	"os"
	"time"

	"github.com/goccy/go-yaml"
)

// Config is the forwarder's single process-level configuration,
// loaded once at startup. There is no live-reload or management RPC
// surface; a running forwarder is unaffected by later edits to the
// file it was started with.
type Config struct {
	// PcctCapacity bounds the number of entries the fused PIT/CS/token
	// table may hold, per worker.
	PcctCapacity int `yaml:"pcctCapacity"`
	// CsResidentCapacity bounds the in-memory CS LRU tier, per worker.
	CsResidentCapacity int `yaml:"csResidentCapacity"`
	// FibStartDepth is the FIB's stage-1 hash-index name depth.
	FibStartDepth int `yaml:"fibStartDepth"`

	// CoDelTarget and CoDelInterval tune the CoDel packet queue.
	CoDelTarget   time.Duration `yaml:"codelTarget"`
	CoDelInterval time.Duration `yaml:"codelInterval"`
	QueueCapacity int           `yaml:"queueCapacity"`

	// TimerSlotBits and TimerInterval size the hashed-wheel timer.
	TimerSlotBits  int           `yaml:"timerSlotBits"`
	TimerInterval  time.Duration `yaml:"timerInterval"`

	// Workers is the number of forwarding worker goroutines, and
	// CorePinning optionally lists one OS core ID per worker
	// (len(CorePinning) must be 0 or equal to Workers). The process's
	// CPU affinity is set to the union of these cores; no individual
	// worker goroutine is bound to its own core.
	Workers     int   `yaml:"workers"`
	CorePinning []int `yaml:"corePinning"`

	// FaceBurstSize is loaded and defaulted but nothing reads it; a
	// face's TxBurst flushes every iface.TxBurstFrames frames.
	FaceBurstSize int `yaml:"faceBurstSize"`

	// IndirectCSPath, if non-empty, enables the badger-backed indirect
	// CS tier at this on-disk path. IndirectCSSizeLimitBytes caps its
	// growth; zero means unbounded.
	IndirectCSPath            string `yaml:"indirectCsPath"`
	IndirectCSSizeLimitBytes  int64  `yaml:"indirectCsSizeLimitBytes"`

	// MulticastSuppressionTime is loaded and defaulted but nothing
	// reads it; the Multicast strategy uses its own fixed
	// strategy.MulticastSuppressionTime.
	MulticastSuppressionTime time.Duration `yaml:"multicastSuppressionTime"`

	// DedupDataPerDownstream controls whether a Data satisfying both a
	// PIT0 and a PIT1 slot for the same downstream is sent once
	// (true, default) or once per matching slot (false, matching the
	// original source's literal, likely-unintentional behavior).
	DedupDataPerDownstream bool `yaml:"dedupDataPerDownstream"`

	// Faces declares the faces to bring up at startup. A face with no
	// concrete transport wired to it yet (the common case for this
	// standalone binary, which owns no socket/NIC layer) runs over
	// iface.NullTransport: it can still receive via Face.Enqueue and
	// will accept every TxBurst send, which is enough to exercise the
	// FIB/PIT/CS pipeline without a live link.
	Faces []FaceConfig `yaml:"faces"`
	// Routes declares static FIB entries to install at startup.
	Routes []RouteConfig `yaml:"routes"`
}

// FaceConfig declares one face to create at startup.
type FaceConfig struct {
	ID  uint64 `yaml:"id"`
	MTU int    `yaml:"mtu"`
}

// RouteConfig declares one static FIB entry: a name prefix, the faces
// it may be forwarded out of, and the strategy that picks among them.
// Weights, if given, must name a subset of Faces; an unweighted face
// defaults to weight 1.
type RouteConfig struct {
	Prefix   string           `yaml:"prefix"`
	Faces    []uint64         `yaml:"faces"`
	Strategy string           `yaml:"strategy"`
	Weights  map[string]int   `yaml:"weights"`
}

// DefaultConfig returns the zero-config defaults, matching the
// original implementation's constants.
func DefaultConfig() *Config {
	return &Config{
		PcctCapacity:             65536,
		CsResidentCapacity:       16384,
		FibStartDepth:            8,
		CoDelTarget:              5 * time.Millisecond,
		CoDelInterval:            100 * time.Millisecond,
		QueueCapacity:            1024,
		TimerSlotBits:            12,
		TimerInterval:            time.Millisecond,
		Workers:                  1,
		FaceBurstSize:            64,
		MulticastSuppressionTime: 500 * time.Millisecond,
		DedupDataPerDownstream:   true,
	}
}

// LoadConfig reads and parses the YAML config file at path, applying
// it over DefaultConfig so an omitted field keeps its default.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
