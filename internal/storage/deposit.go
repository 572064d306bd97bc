package storage

import (
	"math"

	"github.com/diskmesh/diskmesh/internal/disk"
	"github.com/diskmesh/diskmesh/internal/network"
	"github.com/diskmesh/diskmesh/pkg/item"
)

// UseTolerance is how far apart two use counters may be and still top up
// the same slot during a deposit.
const UseTolerance = 1e-4

// DepositIntoPayload stores as much of incoming as fits into slots, which is
// modified in place. Quality-0 items first top up matching slots to
// maxStack; whatever is left goes into empty slots, at most maxStack per
// slot. It returns the remainder and whether any slot changed.
func DepositIntoPayload(slots []item.Stack, incoming item.Stack, maxStack int) (item.Stack, bool) {
	if incoming.IsEmpty() {
		return item.Stack{}, false
	}
	if maxStack < 1 {
		maxStack = 1
	}

	remaining := incoming.Count
	changed := false

	if incoming.Value.Quality == 0 {
		for i, s := range slots {
			if !canTopUp(s, incoming.Value) {
				continue
			}
			room := maxStack - s.Count
			if room <= 0 {
				continue
			}
			add := min(room, remaining)
			slots[i].Count += add
			remaining -= add
			changed = true
			if remaining == 0 {
				return item.Stack{}, true
			}
		}
	}

	for i, s := range slots {
		if !s.IsEmpty() {
			continue
		}
		add := min(maxStack, remaining)
		slots[i] = incoming.WithCount(add)
		remaining -= add
		changed = true
		if remaining == 0 {
			return item.Stack{}, true
		}
	}

	return incoming.WithCount(remaining), changed
}

func canTopUp(s item.Stack, v item.Value) bool {
	if s.IsEmpty() || s.Value.Type != v.Type || s.Value.Quality != 0 {
		return false
	}
	return math.Abs(float64(s.Value.UseTimes)-float64(v.UseTimes)) <= UseTolerance
}

// Deposit stores incoming in the network, disk by disk, and returns what
// did not fit. Disk items are never stored inside disks and come back whole.
func (e *Engine) Deposit(drives []disk.Drive, incoming item.Stack) item.Stack {
	if incoming.IsEmpty() {
		return item.Stack{}
	}
	if e.media.IsDisk(incoming) {
		e.metrics.RecordDeposit(0, incoming.Count)
		return incoming
	}

	maxStack := e.media.StackLimit(incoming.Value)
	remaining := incoming

	e.visit(drives, func(ref *diskRef) bool {
		rest, changed := DepositIntoPayload(ref.slots, remaining, maxStack)
		if !changed {
			return true
		}
		ref.dirty = true
		if !e.flush(ref) {
			return true
		}
		remaining = rest
		return !remaining.IsEmpty()
	})

	left := 0
	if !remaining.IsEmpty() {
		left = remaining.Count
		e.logger.Debug().
			Int("type", incoming.Value.Type).
			Int("remainder", left).
			Msg("network full, deposit remainder returned")
	}
	e.metrics.RecordDeposit(incoming.Count-left, left)

	if left == 0 {
		return item.Stack{}
	}
	return remaining
}

// DepositAll deposits every stack in stacks except the one at exclude and any
// disk items. It returns the updated stacks and the number of units moved.
func (e *Engine) DepositAll(drives []disk.Drive, stacks []item.Stack, exclude int) ([]item.Stack, int) {
	out := make([]item.Stack, len(stacks))
	copy(out, stacks)

	moved := 0
	for i, s := range out {
		if i == exclude || s.IsEmpty() || e.media.IsDisk(s) {
			continue
		}
		rest := e.Deposit(drives, s)
		moved += s.Count - rest.Count
		out[i] = rest
	}
	return out, moved
}

// Container is an item holder outside the network, such as a drop box or a
// player's inventory.
type Container interface {
	Items() []item.Stack
	SetItems(stacks []item.Stack)
}

// DepositContainer deposits the contents of c, skipping slot exclude, and
// returns the number of units moved.
func (e *Engine) DepositContainer(drives []disk.Drive, c Container, exclude int) int {
	out, moved := e.DepositAll(drives, c.Items(), exclude)
	if moved > 0 {
		c.SetItems(out)
	}
	return moved
}

// ContainerWorld is a network.World that also exposes containers.
type ContainerWorld interface {
	network.World
	Container(p network.Position) (Container, bool)
}

// FlushDropBox moves the contents of the drop box at pos into its network.
func (e *Engine) FlushDropBox(w ContainerWorld, pos network.Position) (int, error) {
	if w.KindAt(pos) != network.KindDropBox {
		return 0, ErrNotDropBox
	}
	c, ok := w.Container(pos)
	if !ok {
		return 0, ErrNoContainer
	}

	drives := network.Discover(w, pos)
	e.metrics.ObserveNetwork(len(drives))
	moved := e.DepositContainer(drives, c, -1)

	e.logger.Debug().
		Str("dropbox", pos.Key()).
		Int("drives", len(drives)).
		Int("moved", moved).
		Msg("drop box flushed")
	return moved, nil
}
