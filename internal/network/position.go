package network

import (
	"fmt"
	"strconv"
	"strings"
)

// Position is a block cell in a world layer.
type Position struct {
	Layer int `json:"layer" yaml:"layer"`
	X     int `json:"x" yaml:"x"`
	Y     int `json:"y" yaml:"y"`
	Z     int `json:"z" yaml:"z"`
}

// Key returns the canonical string form "layer:x,y,z".
func (p Position) Key() string {
	return fmt.Sprintf("%d:%d,%d,%d", p.Layer, p.X, p.Y, p.Z)
}

func (p Position) String() string {
	return p.Key()
}

// Add offsets p by d on the same layer.
func (p Position) Add(d Position) Position {
	return Position{Layer: p.Layer, X: p.X + d.X, Y: p.Y + d.Y, Z: p.Z + d.Z}
}

// FaceNeighbors are the offsets of the six cells sharing a face with a cell.
var FaceNeighbors = []Position{
	{X: 1}, {X: -1},
	{Y: 1}, {Y: -1},
	{Z: 1}, {Z: -1},
}

// ParsePosition parses "x,y,z" on the given layer.
func ParsePosition(s string, layer int) (Position, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return Position{}, fmt.Errorf("position %q: want x,y,z", s)
	}
	var coords [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return Position{}, fmt.Errorf("position %q: %w", s, err)
		}
		coords[i] = n
	}
	return Position{Layer: layer, X: coords[0], Y: coords[1], Z: coords[2]}, nil
}
