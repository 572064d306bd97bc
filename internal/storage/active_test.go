package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diskmesh/diskmesh/internal/disk"
	"github.com/diskmesh/diskmesh/pkg/item"
)

func TestEngine_Normalize(t *testing.T) {
	f := newFixture(t)

	got := f.engine.Normalize([]item.Stack{
		item.NewStack(valX, 100),
		item.NewStack(valY, 1),
		{},
		item.NewStack(valX, 30),
	})

	assert.Equal(t, []item.Stack{
		item.NewStack(valX, 60),
		item.NewStack(valX, 60),
		item.NewStack(valX, 10),
		item.NewStack(valY, 1),
	}, got)
}

func TestEngine_WriteActive(t *testing.T) {
	f := newFixture(t)
	var tick int64
	f.media = disk.NewMedia(disk.Options{
		Catalog:    testCatalog(),
		Capacities: disk.Capacities{T0: 2, T1: 4, T2: 8},
		Clock: func() time.Time {
			tick++
			return time.Unix(0, tick)
		},
	})
	f.engine = NewEngine(Options{Media: f.media})

	older := f.disk(typeDiskT0)
	newer := f.disk(typeDiskT0)
	d := newDrive("a", newer, older)
	require.Greater(t, f.media.LastWrite(newer), f.media.LastWrite(older))

	overflow, err := f.engine.WriteActive(d, []item.Stack{item.NewStack(valX, 150)})
	require.NoError(t, err)

	assert.Equal(t, []item.Stack{item.NewStack(valX, 30)}, overflow)
	slots := f.contents(d, 0)
	assert.Equal(t, 60, slots[0].Count)
	assert.Equal(t, 60, slots[1].Count)
	assert.Empty(t, f.engine.Aggregate(drivesOf(&testDrive{id: "b", bays: []item.Stack{d.bays[1]}})))
}

func TestEngine_WriteActiveNoDisk(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.WriteActive(newDrive("a"), []item.Stack{item.NewStack(valX, 1)})
	assert.ErrorIs(t, err, ErrNoDisk)
}
