package session

import (
	"strings"

	"github.com/diskmesh/diskmesh/pkg/item"
)

// AllCategory disables category filtering, as does the empty string.
const AllCategory = "All"

// Categories maps a category name to the item group tags it covers.
type Categories map[string][]string

// DefaultCategories returns the stock reader categories.
func DefaultCategories() Categories {
	return Categories{
		"Weapons":   {"Ammo/Weapons", "Weapons", "Ammo", "Ranged Weapons", "Melee Weapons"},
		"Food":      {"Food/Cooking", "Medical", "Chemicals"},
		"Resources": {"Resources"},
		"Armor":     {"Armor", "Clothing"},
		"Tools":     {"Tools/Traps", "Tools"},
	}
}

// Tags returns the group tags of category, matched case-insensitively.
func (c Categories) Tags(category string) ([]string, bool) {
	if tags, ok := c[category]; ok {
		return tags, true
	}
	for name, tags := range c {
		if strings.EqualFold(name, category) {
			return tags, true
		}
	}
	return nil, false
}

// Match reports whether cls belongs to category. No category matches
// everything; an unknown category matches nothing.
func (c Categories) Match(category string, cls item.Class) bool {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, AllCategory) {
		return true
	}
	tags, ok := c.Tags(category)
	if !ok {
		return false
	}
	return cls.InGroup(tags...)
}

// BuildDisplayIndices returns, in order, the indices of all whose stacks are
// non-empty, of a known class, in category, and whose localized name
// contains filter (case-insensitive).
func BuildDisplayIndices(all []item.Stack, catalog item.Catalog, filter, category string, categories Categories) []int {
	needle := strings.ToLower(strings.TrimSpace(filter))

	out := make([]int, 0, len(all))
	for i, s := range all {
		if s.IsEmpty() || catalog == nil {
			continue
		}
		cls, ok := catalog.Class(s.Value.Type)
		if !ok {
			continue
		}
		if !categories.Match(category, cls) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(cls.LocalizedName()), needle) {
			continue
		}
		out = append(out, i)
	}
	return out
}
