package world

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/diskmesh/diskmesh/internal/disk"
	"github.com/diskmesh/diskmesh/internal/network"
	"github.com/diskmesh/diskmesh/pkg/item"
)

// Layout describes a world in YAML.
//
//	items:
//	  - {id: 1, name: Nail, max_stack: 60, groups: [Resources]}
//	  - {id: 100, name: StorageDiskT1, disk: true}
//	blocks:
//	  - kind: reader
//	    at: "0,0,0"
//	  - kind: drive
//	    id: rack
//	    cells: ["1,0,0", "2,0,0"]
//	    disks:
//	      - class: StorageDiskT1
//	        items: [{type: 1, count: 40}]
type Layout struct {
	Items  []item.Class  `yaml:"items"`
	Blocks []BlockLayout `yaml:"blocks"`
}

// BlockLayout is one block of a Layout.
type BlockLayout struct {
	Kind  string       `yaml:"kind"`
	ID    string       `yaml:"id"`
	Layer int          `yaml:"layer"`
	At    string       `yaml:"at"`
	Cells []string     `yaml:"cells"`
	Disks []DiskLayout `yaml:"disks"`
	Items []StackSpec  `yaml:"items"`
}

// DiskLayout is a disk inserted into a drive, in bay order.
type DiskLayout struct {
	Class string      `yaml:"class"`
	Items []StackSpec `yaml:"items"`
}

// StackSpec is a stack written as type id and count.
type StackSpec struct {
	Type     int     `yaml:"type"`
	Count    int     `yaml:"count"`
	Quality  int     `yaml:"quality"`
	UseTimes float32 `yaml:"use_times"`
}

// Stack converts s to an item stack.
func (s StackSpec) Stack() item.Stack {
	return item.NewStack(item.Value{Type: s.Type, Quality: s.Quality, UseTimes: s.UseTimes}, s.Count)
}

// LoadLayout reads a layout file.
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	return &l, nil
}

// Build creates a world from a layout. Disk contents are written through
// media, which must resolve the layout's item classes.
func Build(l *Layout, media *disk.Media) (*World, error) {
	w := New(item.NewMapCatalog(l.Items...), media.BayCount())

	for i, b := range l.Blocks {
		if err := w.buildBlock(b, media); err != nil {
			return nil, fmt.Errorf("block %d (%s): %w", i, b.Kind, err)
		}
	}
	return w, nil
}

func (w *World) buildBlock(b BlockLayout, media *disk.Media) error {
	cells := b.Cells
	if b.At != "" {
		cells = append([]string{b.At}, cells...)
	}
	if len(cells) == 0 {
		return errors.New("no position")
	}
	positions := make([]network.Position, 0, len(cells))
	for _, c := range cells {
		p, err := network.ParsePosition(c, b.Layer)
		if err != nil {
			return err
		}
		positions = append(positions, p)
	}

	switch b.Kind {
	case "drive":
		d, err := w.PlaceDrive(b.ID, positions...)
		if err != nil {
			return err
		}
		for bay, dl := range b.Disks {
			s, err := w.buildDisk(dl, media)
			if err != nil {
				return fmt.Errorf("bay %d: %w", bay, err)
			}
			if err := w.InsertDisk(d.ID(), bay, s); err != nil {
				return err
			}
		}
		return nil
	case "reader", "dropbox":
		if len(positions) != 1 {
			return fmt.Errorf("%s takes exactly one cell", b.Kind)
		}
		place := w.PlaceReader
		if b.Kind == "dropbox" {
			place = w.PlaceDropBox
		}
		if err := place(positions[0]); err != nil {
			return err
		}
		c := w.containers[positions[0]]
		for _, spec := range b.Items {
			if !c.Put(spec.Stack()) {
				return errors.New("container full")
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown block kind %q", b.Kind)
	}
}

func (w *World) buildDisk(dl DiskLayout, media *disk.Media) (item.Stack, error) {
	s, err := w.NewDisk(dl.Class)
	if err != nil {
		return item.Stack{}, err
	}
	if len(dl.Items) == 0 {
		return s, nil
	}
	slots := make([]item.Stack, 0, len(dl.Items))
	for _, spec := range dl.Items {
		slots = append(slots, spec.Stack())
	}
	return media.Save(s, slots)
}
