// Package item defines the item model shared by the storage engine and its hosts.
package item

import (
	"fmt"
	"math"
	"strings"
)

// EmptyType is the type id of the "no item" value.
const EmptyType = 0

// Value is a single item instance: its type plus per-instance state.
type Value struct {
	Type     int               `json:"type"`
	Quality  int               `json:"quality,omitempty"`
	UseTimes float32           `json:"use_times,omitempty"`
	Meta     map[string]string `json:"meta,omitempty"`
}

// IsEmpty reports whether v is the empty sentinel.
func (v Value) IsEmpty() bool {
	return v.Type == EmptyType
}

// Metadata returns the string metadata stored under key.
func (v Value) Metadata(key string) (string, bool) {
	val, ok := v.Meta[key]
	return val, ok
}

// WithMetadata returns a copy of v with key set to val. The receiver is not modified.
func (v Value) WithMetadata(key, val string) Value {
	meta := make(map[string]string, len(v.Meta)+1)
	for k, existing := range v.Meta {
		meta[k] = existing
	}
	meta[key] = val
	v.Meta = meta
	return v
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	if v.Meta == nil {
		return v
	}
	meta := make(map[string]string, len(v.Meta))
	for k, val := range v.Meta {
		meta[k] = val
	}
	v.Meta = meta
	return v
}

// Identity is the merge key of an item: type, quality and the exact bit
// pattern of its use counter.
type Identity struct {
	Type    int    `json:"type"`
	Quality int    `json:"quality"`
	UseBits uint32 `json:"use_bits"`
}

// IdentityOf returns the identity of v.
func IdentityOf(v Value) Identity {
	return Identity{
		Type:    v.Type,
		Quality: v.Quality,
		UseBits: math.Float32bits(v.UseTimes),
	}
}

// String returns a compact representation used in logs.
func (id Identity) String() string {
	return fmt.Sprintf("%d/q%d/%08x", id.Type, id.Quality, id.UseBits)
}

// Less orders identities by type, then quality, then use bits.
func (id Identity) Less(other Identity) bool {
	if id.Type != other.Type {
		return id.Type < other.Type
	}
	if id.Quality != other.Quality {
		return id.Quality < other.Quality
	}
	return id.UseBits < other.UseBits
}

// Stack is a count of identical item values. A stack with a non-positive
// count or an empty value is empty, whatever its other fields hold.
type Stack struct {
	Value Value `json:"value"`
	Count int   `json:"count"`
}

// NewStack returns a stack of count copies of v, or the empty stack.
func NewStack(v Value, count int) Stack {
	if count <= 0 || v.IsEmpty() {
		return Stack{}
	}
	return Stack{Value: v.Clone(), Count: count}
}

// IsEmpty reports whether s holds nothing.
func (s Stack) IsEmpty() bool {
	return s.Count <= 0 || s.Value.IsEmpty()
}

// Identity returns the identity of a non-empty stack.
func (s Stack) Identity() (Identity, bool) {
	if s.IsEmpty() {
		return Identity{}, false
	}
	return IdentityOf(s.Value), true
}

// WithCount returns a new stack of the same value holding count units.
func (s Stack) WithCount(count int) Stack {
	return NewStack(s.Value, count)
}

// Clone returns a deep copy of s. Empty stacks normalize to the zero Stack.
func (s Stack) Clone() Stack {
	return NewStack(s.Value, s.Count)
}

// EmptySlots returns n empty stacks.
func EmptySlots(n int) []Stack {
	if n < 0 {
		n = 0
	}
	return make([]Stack, n)
}

// Class describes an item type as the host knows it.
type Class struct {
	ID          int      `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	DisplayName string   `json:"display_name,omitempty" yaml:"display_name"`
	Groups      []string `json:"groups,omitempty" yaml:"groups"`
	MaxStack    int      `json:"max_stack,omitempty" yaml:"max_stack"`
	Disk        bool     `json:"disk,omitempty" yaml:"disk"`
}

// StackLimit returns the largest count a single physical stack may hold.
func (c Class) StackLimit() int {
	if c.MaxStack < 1 {
		return 1
	}
	return c.MaxStack
}

// LocalizedName returns the player-facing name, falling back to the class name.
func (c Class) LocalizedName() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Name
}

// InGroup reports whether the class carries any of the given group tags.
func (c Class) InGroup(groups ...string) bool {
	for _, g := range c.Groups {
		for _, want := range groups {
			if g == want {
				return true
			}
		}
	}
	return false
}

// Catalog resolves item classes by type id.
type Catalog interface {
	Class(typeID int) (Class, bool)
}

// MapCatalog is a Catalog backed by a map.
type MapCatalog map[int]Class

// NewMapCatalog builds a catalog from classes.
func NewMapCatalog(classes ...Class) MapCatalog {
	m := make(MapCatalog, len(classes))
	for _, c := range classes {
		m[c.ID] = c
	}
	return m
}

// Class implements Catalog.
func (m MapCatalog) Class(typeID int) (Class, bool) {
	c, ok := m[typeID]
	return c, ok
}

// ByName finds a class by its name, ignoring case.
func (m MapCatalog) ByName(name string) (Class, bool) {
	for _, c := range m {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Class{}, false
}

// StackLimit returns the stack limit of a type, or 1 when the type is unknown.
func StackLimit(c Catalog, typeID int) int {
	if c == nil {
		return 1
	}
	cls, ok := c.Class(typeID)
	if !ok {
		return 1
	}
	return cls.StackLimit()
}
