// Package world is an in-memory block world that hosts drives, readers and
// drop boxes for the storage engine.
package world

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/diskmesh/diskmesh/internal/disk"
	"github.com/diskmesh/diskmesh/internal/network"
	"github.com/diskmesh/diskmesh/internal/storage"
	"github.com/diskmesh/diskmesh/pkg/item"
)

// SerialKey is the metadata key carrying a disk's serial number.
const SerialKey = "disk_serial"

// DefaultContainerSlots is the slot count of readers and drop boxes.
const DefaultContainerSlots = 40

// Drive is a drive block. One drive may span several cells.
type Drive struct {
	id       string
	cells    []network.Position
	bays     []item.Stack
	modified int
}

// ID implements disk.Drive.
func (d *Drive) ID() string { return d.id }

// Bays implements disk.Drive.
func (d *Drive) Bays() []item.Stack {
	out := make([]item.Stack, len(d.bays))
	copy(out, d.bays)
	return out
}

// SetBay implements disk.Drive. Out of range indices are ignored.
func (d *Drive) SetBay(idx int, s item.Stack) {
	if idx < 0 || idx >= len(d.bays) {
		return
	}
	d.bays[idx] = s
	d.modified++
}

// Cells returns the cells the drive occupies.
func (d *Drive) Cells() []network.Position {
	return append([]network.Position(nil), d.cells...)
}

// Modified counts bay changes since the drive was placed.
func (d *Drive) Modified() int { return d.modified }

// Container is the inventory of a reader or drop box.
type Container struct {
	items []item.Stack
}

// Items implements storage.Container.
func (c *Container) Items() []item.Stack {
	return append([]item.Stack(nil), c.items...)
}

// SetItems implements storage.Container.
func (c *Container) SetItems(stacks []item.Stack) {
	c.items = append(c.items[:0], stacks...)
}

// Put places s in the first empty slot and reports whether it fit.
func (c *Container) Put(s item.Stack) bool {
	for i := range c.items {
		if c.items[i].IsEmpty() {
			c.items[i] = s
			return true
		}
	}
	return false
}

// World holds blocks on any number of layers.
type World struct {
	catalog    item.MapCatalog
	bayCount   int
	kinds      map[network.Position]network.Kind
	driveCells map[network.Position]string
	drives     map[string]*Drive
	containers map[network.Position]*Container
}

// New creates an empty world.
func New(catalog item.MapCatalog, bayCount int) *World {
	if catalog == nil {
		catalog = item.MapCatalog{}
	}
	if bayCount <= 0 {
		bayCount = disk.DefaultBayCount
	}
	return &World{
		catalog:    catalog,
		bayCount:   bayCount,
		kinds:      make(map[network.Position]network.Kind),
		driveCells: make(map[network.Position]string),
		drives:     make(map[string]*Drive),
		containers: make(map[network.Position]*Container),
	}
}

// Catalog returns the world's item catalog.
func (w *World) Catalog() item.MapCatalog { return w.catalog }

// BayCount returns the number of bays on each drive.
func (w *World) BayCount() int { return w.bayCount }

func (w *World) free(cells []network.Position) error {
	for _, c := range cells {
		if _, ok := w.kinds[c]; ok {
			return fmt.Errorf("%s: %w", c, ErrCellOccupied)
		}
	}
	return nil
}

// PlaceDrive places a drive covering cells. An empty id gets a random one.
func (w *World) PlaceDrive(id string, cells ...network.Position) (*Drive, error) {
	if len(cells) == 0 {
		return nil, fmt.Errorf("drive %q needs at least one cell", id)
	}
	if id == "" {
		id = uuid.NewString()
	}
	if _, ok := w.drives[id]; ok {
		return nil, fmt.Errorf("drive %q: %w", id, ErrCellOccupied)
	}
	if err := w.free(cells); err != nil {
		return nil, err
	}

	d := &Drive{
		id:    id,
		cells: append([]network.Position(nil), cells...),
		bays:  item.EmptySlots(w.bayCount),
	}
	w.drives[id] = d
	for _, c := range cells {
		w.kinds[c] = network.KindDrive
		w.driveCells[c] = id
	}
	return d, nil
}

// PlaceReader places a reader with an empty inventory.
func (w *World) PlaceReader(p network.Position) error {
	return w.placeContainer(p, network.KindReader)
}

// PlaceDropBox places a drop box with an empty inventory.
func (w *World) PlaceDropBox(p network.Position) error {
	return w.placeContainer(p, network.KindDropBox)
}

func (w *World) placeContainer(p network.Position, kind network.Kind) error {
	if err := w.free([]network.Position{p}); err != nil {
		return err
	}
	w.kinds[p] = kind
	w.containers[p] = &Container{items: item.EmptySlots(DefaultContainerSlots)}
	return nil
}

// Remove clears a cell. Removing any cell of a drive removes the whole drive
// along with its disks.
func (w *World) Remove(p network.Position) {
	if id, ok := w.driveCells[p]; ok {
		for _, c := range w.drives[id].cells {
			delete(w.kinds, c)
			delete(w.driveCells, c)
		}
		delete(w.drives, id)
		return
	}
	delete(w.kinds, p)
	delete(w.containers, p)
}

// Neighbors implements network.World with face adjacency on one layer.
func (w *World) Neighbors(p network.Position) []network.Position {
	out := make([]network.Position, 0, len(network.FaceNeighbors))
	for _, off := range network.FaceNeighbors {
		out = append(out, p.Add(off))
	}
	return out
}

// KindAt implements network.World.
func (w *World) KindAt(p network.Position) network.Kind {
	return w.kinds[p]
}

// DriveAt implements network.World.
func (w *World) DriveAt(p network.Position) (disk.Drive, bool) {
	id, ok := w.driveCells[p]
	if !ok {
		return nil, false
	}
	return w.drives[id], true
}

// Container implements storage.ContainerWorld.
func (w *World) Container(p network.Position) (storage.Container, bool) {
	c, ok := w.containers[p]
	if !ok {
		return nil, false
	}
	return c, true
}

// Drive returns a drive by id.
func (w *World) Drive(id string) (*Drive, error) {
	d, ok := w.drives[id]
	if !ok {
		return nil, fmt.Errorf("drive %q: %w", id, ErrDriveNotFound)
	}
	return d, nil
}

// Drives returns every drive ordered by id.
func (w *World) Drives() []*Drive {
	out := make([]*Drive, 0, len(w.drives))
	for _, d := range w.drives {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// NewDisk creates a blank disk of the named class with a fresh serial.
func (w *World) NewDisk(className string) (item.Stack, error) {
	cls, ok := w.catalog.ByName(className)
	if !ok {
		return item.Stack{}, fmt.Errorf("%q: %w", className, ErrUnknownClass)
	}
	if !cls.Disk {
		return item.Stack{}, fmt.Errorf("%q: %w", className, disk.ErrNotADisk)
	}
	v := item.Value{Type: cls.ID}.WithMetadata(SerialKey, uuid.NewString())
	return item.NewStack(v, 1), nil
}

// InsertDisk places s into an empty bay of a drive. Only disk items are
// accepted.
func (w *World) InsertDisk(driveID string, bay int, s item.Stack) error {
	d, err := w.Drive(driveID)
	if err != nil {
		return err
	}
	if bay < 0 || bay >= len(d.bays) {
		return fmt.Errorf("bay %d: %w", bay, disk.ErrBayOutOfRange)
	}
	cls, ok := w.catalog.Class(s.Value.Type)
	if s.IsEmpty() || !ok || !cls.Disk {
		return disk.ErrNotADisk
	}
	if !d.bays[bay].IsEmpty() {
		return fmt.Errorf("bay %d: %w", bay, ErrBayOccupied)
	}
	d.SetBay(bay, s)
	return nil
}

// EjectDisk removes and returns the disk in a bay.
func (w *World) EjectDisk(driveID string, bay int) (item.Stack, error) {
	d, err := w.Drive(driveID)
	if err != nil {
		return item.Stack{}, err
	}
	if bay < 0 || bay >= len(d.bays) {
		return item.Stack{}, fmt.Errorf("bay %d: %w", bay, disk.ErrBayOutOfRange)
	}
	s := d.bays[bay]
	d.SetBay(bay, item.Stack{})
	return s, nil
}
