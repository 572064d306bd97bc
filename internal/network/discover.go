// Package network finds the drives reachable from a point in the world.
package network

import (
	"github.com/diskmesh/diskmesh/internal/disk"
)

// Kind is the device type found at a position.
type Kind int

const (
	KindNone Kind = iota
	KindDrive
	KindReader
	KindDropBox
)

func (k Kind) String() string {
	switch k {
	case KindDrive:
		return "drive"
	case KindReader:
		return "reader"
	case KindDropBox:
		return "dropbox"
	default:
		return "none"
	}
}

// World answers the adjacency questions discovery needs.
type World interface {
	Neighbors(p Position) []Position
	KindAt(p Position) Kind
	// DriveAt resolves the drive occupying p. It reports false when no
	// drive responds there.
	DriveAt(p Position) (disk.Drive, bool)
}

// Discover returns the distinct drives reachable from origin through chains
// of adjacent drive cells, in breadth-first order. The origin itself is not
// a member unless reached through a neighbor.
func Discover(w World, origin Position) []disk.Drive {
	var seeds []Position
	for _, n := range w.Neighbors(origin) {
		if w.KindAt(n) == KindDrive {
			seeds = append(seeds, n)
		}
	}
	return search(w, seeds)
}

// DiscoverFrom is Discover, except that when pos is itself a drive the
// search starts there.
func DiscoverFrom(w World, pos Position) []disk.Drive {
	if w.KindAt(pos) == KindDrive {
		return search(w, []Position{pos})
	}
	return Discover(w, pos)
}

func search(w World, seeds []Position) []disk.Drive {
	visited := make(map[string]struct{})
	seen := make(map[string]struct{})
	var drives []disk.Drive

	queue := make([]Position, 0, len(seeds))
	for _, s := range seeds {
		if _, ok := visited[s.Key()]; ok {
			continue
		}
		visited[s.Key()] = struct{}{}
		queue = append(queue, s)
	}

	for head := 0; head < len(queue); head++ {
		p := queue[head]

		d, ok := w.DriveAt(p)
		if !ok || d == nil {
			continue
		}
		if _, dup := seen[d.ID()]; !dup {
			seen[d.ID()] = struct{}{}
			drives = append(drives, d)
		}

		for _, n := range w.Neighbors(p) {
			key := n.Key()
			if _, ok := visited[key]; ok {
				continue
			}
			if w.KindAt(n) != KindDrive {
				continue
			}
			visited[key] = struct{}{}
			queue = append(queue, n)
		}
	}
	return drives
}
