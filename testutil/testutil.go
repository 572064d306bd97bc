// Package testutil provides shared test fixtures for diskmesh tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/diskmesh/diskmesh/pkg/item"
)

// TempDir creates a temporary directory for testing and returns a cleanup function.
func TempDir(t *testing.T) (string, func()) {
	t.Helper()
	dir, err := os.MkdirTemp("", "diskmesh-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	return dir, func() {
		_ = os.RemoveAll(dir)
	}
}

// TempFile creates a temporary file with the given content and returns its path.
func TempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}
	return path
}

// Item type ids of Catalog.
const (
	TypeNail    = 1
	TypePistol  = 2
	TypeBeans   = 3
	TypeWood    = 4
	TypeHelmet  = 5
	TypeDiskT0  = 100
	TypeDiskT1  = 101
	TypeDiskT2  = 102
	TypeUnknown = 999
)

// Catalog returns a small catalog covering every reader category.
func Catalog() item.MapCatalog {
	return item.NewMapCatalog(
		item.Class{ID: TypeNail, Name: "resourceNail", DisplayName: "Nail", Groups: []string{"Resources"}, MaxStack: 60},
		item.Class{ID: TypePistol, Name: "gunPistol", DisplayName: "Pistol", Groups: []string{"Ranged Weapons"}, MaxStack: 1},
		item.Class{ID: TypeBeans, Name: "foodCanBeans", DisplayName: "Can of Beans", Groups: []string{"Food/Cooking"}, MaxStack: 20},
		item.Class{ID: TypeWood, Name: "resourceWood", DisplayName: "Wood", Groups: []string{"Resources"}, MaxStack: 100},
		item.Class{ID: TypeHelmet, Name: "armorHelmet", DisplayName: "Nailed Helmet", Groups: []string{"Armor"}, MaxStack: 1},
		item.Class{ID: TypeDiskT0, Name: "StorageDisk", DisplayName: "Storage Disk", Disk: true, MaxStack: 1},
		item.Class{ID: TypeDiskT1, Name: "StorageDiskT1", DisplayName: "Storage Disk Mk1", Disk: true, MaxStack: 1},
		item.Class{ID: TypeDiskT2, Name: "StorageDiskT2", DisplayName: "Storage Disk Mk2", Disk: true, MaxStack: 1},
	)
}

// Layout is a world with a reader at the origin, a two-cell drive chained to
// a one-cell drive, and a drop box on the far end.
const Layout = `
items:
  - {id: 1, name: resourceNail, display_name: Nail, groups: [Resources], max_stack: 60}
  - {id: 2, name: gunPistol, display_name: Pistol, groups: [Ranged Weapons], max_stack: 1}
  - {id: 3, name: foodCanBeans, display_name: Can of Beans, groups: [Food/Cooking], max_stack: 20}
  - {id: 100, name: StorageDisk, disk: true, max_stack: 1}
  - {id: 101, name: StorageDiskT1, disk: true, max_stack: 1}
blocks:
  - kind: reader
    at: "0,0,0"
  - kind: drive
    id: rack
    cells: ["1,0,0", "2,0,0"]
    disks:
      - class: StorageDisk
        items: [{type: 1, count: 40}]
      - class: StorageDiskT1
        items: [{type: 1, count: 20}, {type: 2, count: 1, quality: 2}]
  - kind: drive
    id: tail
    at: "3,0,0"
    disks:
      - class: StorageDisk
  - kind: dropbox
    at: "4,0,0"
    items: [{type: 3, count: 15}]
`
