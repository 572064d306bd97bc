package storage

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/diskmesh/diskmesh/internal/disk"
	"github.com/diskmesh/diskmesh/internal/metrics"
	"github.com/diskmesh/diskmesh/pkg/item"
)

const (
	typeX      = 1
	typeY      = 2
	typeRifle  = 3
	typeDiskT0 = 100
	typeDiskT1 = 101
)

var (
	valX = item.Value{Type: typeX}
	valY = item.Value{Type: typeY, Quality: 2}
)

func testCatalog() item.MapCatalog {
	return item.NewMapCatalog(
		item.Class{ID: typeX, Name: "Nail", MaxStack: 60},
		item.Class{ID: typeY, Name: "Pistol", MaxStack: 1},
		item.Class{ID: typeRifle, Name: "Rifle", MaxStack: 1},
		item.Class{ID: typeDiskT0, Name: "StorageDisk", Disk: true},
		item.Class{ID: typeDiskT1, Name: "StorageDiskT1", Disk: true},
	)
}

type testDrive struct {
	id     string
	bays   []item.Stack
	writes int
}

func (d *testDrive) ID() string         { return d.id }
func (d *testDrive) Bays() []item.Stack { return append([]item.Stack(nil), d.bays...) }
func (d *testDrive) SetBay(idx int, s item.Stack) {
	d.bays[idx] = s
	d.writes++
}

type fixture struct {
	t       *testing.T
	media   *disk.Media
	engine  *Engine
	metrics *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	met := metrics.New(prometheus.NewRegistry())
	media := disk.NewMedia(disk.Options{Catalog: testCatalog(), Metrics: met})
	return &fixture{
		t:       t,
		media:   media,
		engine:  NewEngine(Options{Media: media, Metrics: met}),
		metrics: met,
	}
}

// disk returns a disk of diskType holding the given stacks in its first slots.
func (f *fixture) disk(diskType int, stacks ...item.Stack) item.Stack {
	f.t.Helper()
	saved, err := f.media.Save(item.NewStack(item.Value{Type: diskType}, 1), stacks)
	require.NoError(f.t, err)
	return saved
}

// contents decodes the disk in bay idx of d.
func (f *fixture) contents(d *testDrive, idx int) []item.Stack {
	f.t.Helper()
	slots, ok := f.media.Load(d.bays[idx])
	require.True(f.t, ok)
	return slots
}

// total sums all units of id across drives.
func (f *fixture) total(drives []disk.Drive, id item.Identity) int {
	return CountByIdentity(f.engine.Aggregate(drives))[id]
}

func newDrive(id string, bays ...item.Stack) *testDrive {
	d := &testDrive{id: id, bays: item.EmptySlots(disk.DefaultBayCount)}
	copy(d.bays, bays)
	return d
}

func drivesOf(ds ...*testDrive) []disk.Drive {
	out := make([]disk.Drive, len(ds))
	for i, d := range ds {
		out[i] = d
	}
	return out
}
