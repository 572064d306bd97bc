package storage

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/diskmesh/diskmesh/internal/disk"
	"github.com/diskmesh/diskmesh/pkg/item"
)

// Normalize merges quality-0 stacks by identity, keeps quality>0 stacks
// apart, and splits every result into stacks no larger than the class limit.
func (e *Engine) Normalize(stacks []item.Stack) []item.Stack {
	var (
		order   []item.Identity
		merged  = make(map[item.Identity]item.Stack)
		entries []item.Stack
	)
	for _, s := range stacks {
		if s.IsEmpty() {
			continue
		}
		if s.Value.Quality > 0 {
			entries = append(entries, s.Clone())
			continue
		}
		id := item.IdentityOf(s.Value)
		if acc, ok := merged[id]; ok {
			acc.Count += s.Count
			merged[id] = acc
			continue
		}
		order = append(order, id)
		merged[id] = s.Clone()
	}

	out := make([]item.Stack, 0, len(order)+len(entries))
	for _, id := range order {
		out = append(out, e.split(merged[id])...)
	}
	for _, s := range entries {
		out = append(out, e.split(s)...)
	}
	return out
}

func (e *Engine) split(s item.Stack) []item.Stack {
	limit := e.media.StackLimit(s.Value)
	var out []item.Stack
	for left := s.Count; left > 0; left -= limit {
		out = append(out, s.WithCount(min(limit, left)))
	}
	return out
}

// WriteActive replaces the payload of the drive's most recently written disk
// with stacks, normalized. Stacks that do not fit are returned.
func (e *Engine) WriteActive(d disk.Drive, stacks []item.Stack) ([]item.Stack, error) {
	bays := d.Bays()
	idx := e.media.ActiveBay(bays)
	if idx < 0 {
		return stacks, ErrNoDisk
	}

	capacity := e.media.Capacity(bays[idx])
	norm := e.Normalize(stacks)
	fit := norm[:min(capacity, len(norm))]
	overflow := norm[len(fit):]

	saved, err := e.media.Save(bays[idx], fit)
	if err != nil {
		return stacks, fmt.Errorf("write active disk: %w", err)
	}
	d.SetBay(idx, saved)
	return overflow, nil
}

// DiskInfo summarises one disk in a network.
type DiskInfo struct {
	DriveID   string
	Bay       int
	Type      int
	Tier      disk.Tier
	Capacity  int
	UsedSlots int
	Units     int
	LastWrite int64
}

// Inventory lists every disk in the network in scan order.
func (e *Engine) Inventory(drives []disk.Drive) []DiskInfo {
	var out []DiskInfo
	e.visit(drives, func(ref *diskRef) bool {
		used := lo.Filter(ref.slots, func(s item.Stack, _ int) bool { return !s.IsEmpty() })
		out = append(out, DiskInfo{
			DriveID:   ref.drive.ID(),
			Bay:       ref.bay,
			Type:      ref.disk.Value.Type,
			Tier:      e.media.Tier(ref.disk),
			Capacity:  len(ref.slots),
			UsedSlots: len(used),
			Units:     lo.SumBy(used, func(s item.Stack) int { return s.Count }),
			LastWrite: e.media.LastWrite(ref.disk),
		})
		return true
	})
	return out
}
