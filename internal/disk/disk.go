// Package disk models storage disks and the drives that hold them.
//
// A disk is an ordinary item stack whose class is flagged as a disk. Its
// contents live in the stack's own metadata as an encoded payload of
// exactly Capacity slots.
package disk

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/diskmesh/diskmesh/internal/codec"
	"github.com/diskmesh/diskmesh/internal/metrics"
	"github.com/diskmesh/diskmesh/pkg/item"
)

// Metadata keys stored on disk items.
const (
	PayloadKey   = "disk_storage_payload"
	LastWriteKey = "disk_storage_lastwrite"
)

// DefaultBayCount is the number of disk bays on a drive.
const DefaultBayCount = 4

// Tier is a disk capacity class.
type Tier int

const (
	Tier0 Tier = iota
	Tier1
	Tier2
)

func (t Tier) String() string {
	switch t {
	case Tier1:
		return "T1"
	case Tier2:
		return "T2"
	default:
		return "T0"
	}
}

// TierOf picks the tier from a disk class name suffix. Names that carry no
// recognised suffix are Tier0.
func TierOf(className string) Tier {
	name := strings.ToUpper(strings.TrimSpace(className))
	switch {
	case strings.HasSuffix(name, "T2"):
		return Tier2
	case strings.HasSuffix(name, "T1"):
		return Tier1
	default:
		return Tier0
	}
}

// Capacities holds the slot count of each tier.
type Capacities struct {
	T0 int `yaml:"capacity_t0"`
	T1 int `yaml:"capacity_t1"`
	T2 int `yaml:"capacity_t2"`
}

// DefaultCapacities returns the stock tier sizes.
func DefaultCapacities() Capacities {
	return Capacities{T0: 90, T1: 180, T2: 360}
}

// For returns the slot count of t.
func (c Capacities) For(t Tier) int {
	switch t {
	case Tier1:
		return c.T1
	case Tier2:
		return c.T2
	default:
		return c.T0
	}
}

// Drive is a device with a fixed array of disk bays.
type Drive interface {
	// ID identifies the logical drive. Multi-cell drives report one ID.
	ID() string
	// Bays returns a copy of the bay array.
	Bays() []item.Stack
	// SetBay replaces the stack in bay idx.
	SetBay(idx int, s item.Stack)
}

// Options configures Media.
type Options struct {
	Catalog    item.Catalog
	Capacities Capacities
	BayCount   int
	Codec      *codec.PayloadCodec
	Clock      func() time.Time
	Logger     zerolog.Logger
	Metrics    *metrics.Metrics
}

// Media reads and writes disk payloads.
type Media struct {
	catalog    item.Catalog
	capacities Capacities
	bayCount   int
	codec      *codec.PayloadCodec
	clock      func() time.Time
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// NewMedia creates a Media. Zero-valued options take their defaults.
func NewMedia(opts Options) *Media {
	if opts.Capacities == (Capacities{}) {
		opts.Capacities = DefaultCapacities()
	}
	if opts.BayCount <= 0 {
		opts.BayCount = DefaultBayCount
	}
	if opts.Codec == nil {
		opts.Codec = codec.NewPayloadCodec(nil)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Media{
		catalog:    opts.Catalog,
		capacities: opts.Capacities,
		bayCount:   opts.BayCount,
		codec:      opts.Codec,
		clock:      opts.Clock,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
}

// Catalog returns the item catalog used to resolve classes.
func (m *Media) Catalog() item.Catalog {
	return m.catalog
}

// BayCount returns the configured number of bays per drive.
func (m *Media) BayCount() int {
	return m.bayCount
}

// ScanLen returns how many bays of a drive with the given bay array length
// are scanned.
func (m *Media) ScanLen(bays []item.Stack) int {
	return min(m.bayCount, len(bays))
}

// IsDisk reports whether s is a non-empty stack of a disk class.
func (m *Media) IsDisk(s item.Stack) bool {
	if s.IsEmpty() || m.catalog == nil {
		return false
	}
	cls, ok := m.catalog.Class(s.Value.Type)
	return ok && cls.Disk
}

// CanInsert reports whether s may be placed into a drive bay.
func (m *Media) CanInsert(s item.Stack) bool {
	return s.IsEmpty() || m.IsDisk(s)
}

// Tier returns the tier of a disk. Unknown classes are Tier0.
func (m *Media) Tier(s item.Stack) Tier {
	if m.catalog == nil {
		return Tier0
	}
	cls, ok := m.catalog.Class(s.Value.Type)
	if !ok {
		return Tier0
	}
	return TierOf(cls.Name)
}

// Capacity returns the slot count of a disk.
func (m *Media) Capacity(s item.Stack) int {
	return m.capacities.For(m.Tier(s))
}

// StackLimit returns the max stack size of v's class, at least 1.
func (m *Media) StackLimit(v item.Value) int {
	return item.StackLimit(m.catalog, v.Type)
}

// Load decodes the payload of disk s. It reports false when s is not a
// disk. A disk with no payload, or one that fails to decode, loads as
// Capacity empty slots.
func (m *Media) Load(s item.Stack) ([]item.Stack, bool) {
	if !m.IsDisk(s) {
		return nil, false
	}
	capacity := m.Capacity(s)
	blob, ok := s.Value.Metadata(PayloadKey)
	if !ok || blob == "" {
		return item.EmptySlots(capacity), true
	}

	slots, err := m.codec.Decode(blob, capacity)
	if err != nil {
		m.logger.Warn().
			Err(err).
			Int("disk_type", s.Value.Type).
			Int("capacity", capacity).
			Msg("disk payload unreadable, treating as empty")
		m.metrics.RecordDecodeFailure()
	}
	return slots, true
}

// Save returns a copy of disk s carrying slots as its payload and a fresh
// last-write stamp. Slots are padded with empties to Capacity; a non-empty
// slot past Capacity is an error.
func (m *Media) Save(s item.Stack, slots []item.Stack) (item.Stack, error) {
	if !m.IsDisk(s) {
		return s, ErrNotADisk
	}
	capacity := m.Capacity(s)
	for i := capacity; i < len(slots); i++ {
		if !slots[i].IsEmpty() {
			return s, fmt.Errorf("slot %d of %d: %w", i, capacity, ErrPayloadTooLarge)
		}
	}

	payload := item.EmptySlots(capacity)
	copy(payload, slots)

	blob, err := m.codec.Encode(payload)
	if err != nil {
		return s, fmt.Errorf("encode payload: %w", err)
	}

	ticks := m.clock().UnixNano()
	if prev := m.LastWrite(s); ticks <= prev {
		ticks = prev + 1
	}

	out := s.Clone()
	out.Value = out.Value.
		WithMetadata(PayloadKey, blob).
		WithMetadata(LastWriteKey, strconv.FormatInt(ticks, 10))
	m.metrics.RecordDiskWrite()
	return out, nil
}

// LastWrite returns the last-write stamp of a disk, or 0 if it has none.
func (m *Media) LastWrite(s item.Stack) int64 {
	raw, ok := s.Value.Metadata(LastWriteKey)
	if !ok {
		return 0
	}
	ticks, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return ticks
}

// ActiveBay returns the bay holding the most recently written disk, or -1
// when no scanned bay holds a disk. Ties go to the lowest bay.
func (m *Media) ActiveBay(bays []item.Stack) int {
	best := -1
	var bestTicks int64
	for i := 0; i < m.ScanLen(bays); i++ {
		if !m.IsDisk(bays[i]) {
			continue
		}
		ticks := m.LastWrite(bays[i])
		if best < 0 || ticks > bestTicks {
			best, bestTicks = i, ticks
		}
	}
	return best
}
