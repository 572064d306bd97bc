package disk

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diskmesh/diskmesh/internal/metrics"
	"github.com/diskmesh/diskmesh/pkg/item"
)

const (
	typeNail   = 1
	typeDiskT0 = 100
	typeDiskT1 = 101
	typeDiskT2 = 102
)

func testCatalog() item.MapCatalog {
	return item.NewMapCatalog(
		item.Class{ID: typeNail, Name: "Nail", MaxStack: 60},
		item.Class{ID: typeDiskT0, Name: "StorageDisk", Disk: true},
		item.Class{ID: typeDiskT1, Name: "StorageDiskT1", Disk: true},
		item.Class{ID: typeDiskT2, Name: "storagediskt2", Disk: true},
	)
}

func fixedClock(ts int64) func() time.Time {
	return func() time.Time { return time.Unix(0, ts) }
}

func newDisk(typeID int) item.Stack {
	return item.NewStack(item.Value{Type: typeID}, 1)
}

func TestTierOf(t *testing.T) {
	tests := []struct {
		name string
		want Tier
	}{
		{"StorageDisk", Tier0},
		{"StorageDiskT1", Tier1},
		{"storagediskt2", Tier2},
		{"  DiskT2  ", Tier2},
		{"", Tier0},
		{"T3", Tier0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TierOf(tt.name))
		})
	}
}

func TestCapacities_For(t *testing.T) {
	c := DefaultCapacities()
	assert.Equal(t, 90, c.For(Tier0))
	assert.Equal(t, 180, c.For(Tier1))
	assert.Equal(t, 360, c.For(Tier2))
	assert.Equal(t, 90, c.For(Tier(9)))
}

func TestMedia_CapacityAndTier(t *testing.T) {
	m := NewMedia(Options{Catalog: testCatalog()})

	assert.Equal(t, 90, m.Capacity(newDisk(typeDiskT0)))
	assert.Equal(t, 180, m.Capacity(newDisk(typeDiskT1)))
	assert.Equal(t, 360, m.Capacity(newDisk(typeDiskT2)))
	assert.Equal(t, Tier0, m.Tier(newDisk(999)), "unknown class falls back to smallest tier")
}

func TestMedia_IsDisk(t *testing.T) {
	m := NewMedia(Options{Catalog: testCatalog()})

	assert.True(t, m.IsDisk(newDisk(typeDiskT1)))
	assert.False(t, m.IsDisk(newDisk(typeNail)))
	assert.False(t, m.IsDisk(item.Stack{}))
	assert.True(t, m.CanInsert(item.Stack{}))
	assert.False(t, m.CanInsert(newDisk(typeNail)))
}

func TestMedia_LoadMissingPayload(t *testing.T) {
	m := NewMedia(Options{Catalog: testCatalog()})

	slots, ok := m.Load(newDisk(typeDiskT0))
	require.True(t, ok)
	assert.Len(t, slots, 90)

	_, ok = m.Load(newDisk(typeNail))
	assert.False(t, ok)
}

func TestMedia_SaveLoadRoundTrip(t *testing.T) {
	m := NewMedia(Options{Catalog: testCatalog(), Clock: fixedClock(1000)})
	d := newDisk(typeDiskT0)

	slots := []item.Stack{item.NewStack(item.Value{Type: typeNail}, 40)}
	saved, err := m.Save(d, slots)
	require.NoError(t, err)

	_, hadPayload := d.Value.Metadata(PayloadKey)
	assert.False(t, hadPayload, "Save must not modify its input")

	got, ok := m.Load(saved)
	require.True(t, ok)
	require.Len(t, got, 90)
	assert.Equal(t, 40, got[0].Count)
	assert.True(t, got[1].IsEmpty())
	assert.Equal(t, int64(1000), m.LastWrite(saved))
}

func TestMedia_SaveRejectsOverflow(t *testing.T) {
	m := NewMedia(Options{Catalog: testCatalog(), Capacities: Capacities{T0: 2, T1: 4, T2: 8}})

	slots := item.EmptySlots(3)
	_, err := m.Save(newDisk(typeDiskT0), slots)
	require.NoError(t, err, "trailing empties past capacity are dropped")

	slots[2] = item.NewStack(item.Value{Type: typeNail}, 1)
	_, err = m.Save(newDisk(typeDiskT0), slots)
	assert.ErrorIs(t, err, ErrPayloadTooLarge)

	_, err = m.Save(newDisk(typeNail), nil)
	assert.ErrorIs(t, err, ErrNotADisk)
}

func TestMedia_LastWriteIsMonotonic(t *testing.T) {
	m := NewMedia(Options{Catalog: testCatalog(), Clock: fixedClock(500)})

	first, err := m.Save(newDisk(typeDiskT0), nil)
	require.NoError(t, err)
	second, err := m.Save(first, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(500), m.LastWrite(first))
	assert.Equal(t, int64(501), m.LastWrite(second))
}

func TestMedia_LoadCorruptCountsFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	met := metrics.New(reg)
	m := NewMedia(Options{Catalog: testCatalog(), Metrics: met})

	d := newDisk(typeDiskT1)
	d.Value = d.Value.WithMetadata(PayloadKey, "%%%garbage")

	slots, ok := m.Load(d)
	require.True(t, ok)
	assert.Equal(t, item.EmptySlots(180), slots)
	assert.Equal(t, 1.0, testutil.ToFloat64(met.DecodeFailures))
}

func TestMedia_ActiveBay(t *testing.T) {
	m := NewMedia(Options{Catalog: testCatalog(), BayCount: 3})

	stamp := func(s item.Stack, ticks string) item.Stack {
		s.Value = s.Value.WithMetadata(LastWriteKey, ticks)
		return s
	}

	tests := []struct {
		name string
		bays []item.Stack
		want int
	}{
		{"no bays", nil, -1},
		{"no disks", []item.Stack{{}, newDisk(typeNail)}, -1},
		{"unstamped picks first", []item.Stack{{}, newDisk(typeDiskT0), newDisk(typeDiskT1)}, 1},
		{"highest stamp", []item.Stack{stamp(newDisk(typeDiskT0), "10"), stamp(newDisk(typeDiskT0), "30"), stamp(newDisk(typeDiskT0), "20")}, 1},
		{"bays past count ignored", []item.Stack{{}, {}, {}, stamp(newDisk(typeDiskT0), "99")}, -1},
		{"bad stamp counts as zero", []item.Stack{stamp(newDisk(typeDiskT0), "x"), stamp(newDisk(typeDiskT0), "1")}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.ActiveBay(tt.bays))
		})
	}
}
