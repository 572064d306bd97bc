package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/diskmesh/diskmesh/pkg/item"
	"github.com/diskmesh/diskmesh/testutil"
)

func stacks(specs ...[2]int) []item.Stack {
	out := make([]item.Stack, 0, len(specs))
	for _, s := range specs {
		out = append(out, item.NewStack(item.Value{Type: s[0]}, s[1]))
	}
	return out
}

func TestCategories_Match(t *testing.T) {
	cats := DefaultCategories()
	pistol, _ := testutil.Catalog().Class(testutil.TypePistol)

	tests := []struct {
		category string
		want     bool
	}{
		{"", true},
		{"All", true},
		{"all", true},
		{"Weapons", true},
		{"weapons", true},
		{"Food", false},
		{"Gizmos", false},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			assert.Equal(t, tt.want, cats.Match(tt.category, pistol))
		})
	}
}

func TestBuildDisplayIndices(t *testing.T) {
	cat := testutil.Catalog()
	all := stacks(
		[2]int{testutil.TypeNail, 10},
		[2]int{testutil.TypeBeans, 3},
		[2]int{testutil.TypeUnknown, 4},
		[2]int{testutil.TypeWood, 0},
		[2]int{testutil.TypeHelmet, 1},
		[2]int{testutil.TypeWood, 50},
	)

	tests := []struct {
		name     string
		filter   string
		category string
		want     []int
	}{
		{"everything known and non-empty", "", "", []int{0, 1, 4, 5}},
		{"text filter is case-insensitive substring", "  NAIL ", "", []int{0, 4}},
		{"category filter", "", "Resources", []int{0, 5}},
		{"filters compose as conjunction", "nail", "Resources", []int{0}},
		{"no match", "rocket", "", []int{}},
		{"unknown category", "", "Gizmos", []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildDisplayIndices(all, cat, tt.filter, tt.category, DefaultCategories())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildDisplayIndices_PreservesOrder(t *testing.T) {
	cat := testutil.Catalog()
	all := stacks(
		[2]int{testutil.TypeWood, 1},
		[2]int{testutil.TypeBeans, 1},
		[2]int{testutil.TypeNail, 1},
		[2]int{testutil.TypeBeans, 2},
		[2]int{testutil.TypeWood, 2},
	)

	unfiltered := BuildDisplayIndices(all, cat, "", "", DefaultCategories())
	filtered := BuildDisplayIndices(all, cat, "wo", "", DefaultCategories())

	// Every filtered index appears in the unfiltered list in the same relative order.
	pos := 0
	for _, idx := range filtered {
		for pos < len(unfiltered) && unfiltered[pos] != idx {
			pos++
		}
		assert.Less(t, pos, len(unfiltered), "index %d out of order", idx)
	}
	assert.Equal(t, []int{0, 4}, filtered)
}
