package world

import (
	"sort"

	"github.com/diskmesh/diskmesh/internal/network"
	"github.com/diskmesh/diskmesh/pkg/item"
)

// Snapshot is the persisted form of a World.
type Snapshot struct {
	BayCount   int              `json:"bay_count"`
	Catalog    []item.Class     `json:"catalog"`
	Blocks     []BlockState     `json:"blocks"`
	Drives     []DriveState     `json:"drives"`
	Containers []ContainerState `json:"containers"`
}

// BlockState is a non-drive block.
type BlockState struct {
	Pos  network.Position `json:"pos"`
	Kind network.Kind     `json:"kind"`
}

// DriveState is a drive with its bays.
type DriveState struct {
	ID    string             `json:"id"`
	Cells []network.Position `json:"cells"`
	Bays  []item.Stack       `json:"bays"`
}

// ContainerState is the inventory of a block.
type ContainerState struct {
	Pos   network.Position `json:"pos"`
	Items []item.Stack     `json:"items"`
}

func lessPos(a, b network.Position) bool {
	if a.Layer != b.Layer {
		return a.Layer < b.Layer
	}
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}

// Snapshot captures the world in a deterministic order.
func (w *World) Snapshot() Snapshot {
	snap := Snapshot{BayCount: w.bayCount}

	for _, c := range w.catalog {
		snap.Catalog = append(snap.Catalog, c)
	}
	sort.Slice(snap.Catalog, func(i, j int) bool { return snap.Catalog[i].ID < snap.Catalog[j].ID })

	for p, kind := range w.kinds {
		if kind == network.KindDrive {
			continue
		}
		snap.Blocks = append(snap.Blocks, BlockState{Pos: p, Kind: kind})
	}
	sort.Slice(snap.Blocks, func(i, j int) bool { return lessPos(snap.Blocks[i].Pos, snap.Blocks[j].Pos) })

	for _, d := range w.Drives() {
		snap.Drives = append(snap.Drives, DriveState{ID: d.id, Cells: d.Cells(), Bays: d.Bays()})
	}

	for p, c := range w.containers {
		snap.Containers = append(snap.Containers, ContainerState{Pos: p, Items: c.Items()})
	}
	sort.Slice(snap.Containers, func(i, j int) bool { return lessPos(snap.Containers[i].Pos, snap.Containers[j].Pos) })

	return snap
}

// Restore rebuilds a world from a snapshot.
func Restore(snap Snapshot) *World {
	w := New(item.NewMapCatalog(snap.Catalog...), snap.BayCount)

	for _, b := range snap.Blocks {
		w.kinds[b.Pos] = b.Kind
	}
	for _, ds := range snap.Drives {
		bays := item.EmptySlots(w.bayCount)
		copy(bays, ds.Bays)
		d := &Drive{id: ds.ID, cells: ds.Cells, bays: bays}
		w.drives[d.id] = d
		for _, c := range d.cells {
			w.kinds[c] = network.KindDrive
			w.driveCells[c] = d.id
		}
	}
	for _, cs := range snap.Containers {
		w.containers[cs.Pos] = &Container{items: cs.Items}
	}
	return w
}
