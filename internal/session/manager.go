// Package session manages reader sessions: a paginated, filterable view of a
// drive network that is reconciled back onto the disks when the reader
// closes.
package session

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/diskmesh/diskmesh/internal/network"
	"github.com/diskmesh/diskmesh/internal/storage"
	"github.com/diskmesh/diskmesh/pkg/item"
)

// Default reader grid.
const (
	DefaultRows = 7
	DefaultCols = 10
)

// Options configures a Manager.
type Options struct {
	World      network.World
	Engine     *storage.Engine
	Store      *Store
	Rows       int
	Cols       int
	Categories Categories
	Logger     zerolog.Logger
}

// Manager drives the reader session lifecycle.
type Manager struct {
	world      network.World
	engine     *storage.Engine
	catalog    item.Catalog
	store      *Store
	rows       int
	cols       int
	categories Categories
	logger     zerolog.Logger
}

// NewManager creates a Manager.
func NewManager(opts Options) *Manager {
	if opts.Store == nil {
		opts.Store = NewStore()
	}
	if opts.Engine == nil {
		opts.Engine = storage.NewEngine(storage.Options{Logger: opts.Logger})
	}
	if opts.Rows <= 0 {
		opts.Rows = DefaultRows
	}
	if opts.Cols <= 0 {
		opts.Cols = DefaultCols
	}
	if opts.Categories == nil {
		opts.Categories = DefaultCategories()
	}
	return &Manager{
		world:      opts.World,
		engine:     opts.Engine,
		catalog:    opts.Engine.Media().Catalog(),
		store:      opts.Store,
		rows:       opts.Rows,
		cols:       opts.Cols,
		categories: opts.Categories,
		logger:     opts.Logger,
	}
}

// ReaderID returns the session key of the reader at p.
func ReaderID(p network.Position) string {
	return p.Key()
}

// PageSize returns the number of slots on a page.
func (m *Manager) PageSize() int {
	return m.rows * m.cols
}

// Store returns the manager's session store.
func (m *Manager) Store() *Store {
	return m.store
}

// Open aggregates the reader's network and starts a session, replacing any
// session already open on the reader.
func (m *Manager) Open(reader network.Position) *Session {
	drives := network.Discover(m.world, reader)
	m.engine.Metrics().ObserveNetwork(len(drives))

	all := m.engine.Aggregate(drives)
	s := &Session{
		ReaderID:  ReaderID(reader),
		Reader:    reader,
		AllStacks: all,
		Snapshot:  storage.CountByIdentity(all),
	}
	m.refresh(s)
	m.store.Put(s)
	m.engine.Metrics().SetSessionsOpen(m.store.Len())

	m.logger.Debug().
		Str("reader", s.ReaderID).
		Int("drives", len(drives)).
		Int("entries", len(all)).
		Msg("reader session opened")
	return s
}

// Close ends the session and removes from the network's disks whatever was
// taken during it.
func (m *Manager) Close(readerID string) (storage.Report, error) {
	s, ok := m.store.Take(readerID)
	if !ok {
		return storage.Report{}, fmt.Errorf("close %s: %w", readerID, ErrSessionNotFound)
	}
	m.engine.Metrics().SetSessionsOpen(m.store.Len())

	drives := network.Discover(m.world, s.Reader)
	report := m.engine.ApplyWithdrawals(drives, s.Snapshot, storage.CountByIdentity(s.AllStacks))

	m.logger.Debug().
		Str("reader", readerID).
		Int("entries", len(s.AllStacks)).
		Int("removed", report.TotalRemoved()).
		Int("disks_written", report.DisksWritten).
		Msg("reader session closed")
	return report, nil
}

// Session returns the open session of a reader.
func (m *Manager) Session(readerID string) (*Session, error) {
	s, ok := m.store.Get(readerID)
	if !ok {
		return nil, fmt.Errorf("%s: %w", readerID, ErrSessionNotFound)
	}
	return s, nil
}

// SetFilter sets the name filter and returns to the first page.
func (m *Manager) SetFilter(readerID, text string) error {
	s, err := m.Session(readerID)
	if err != nil {
		return err
	}
	s.Filter = text
	s.Page = 0
	m.refresh(s)
	return nil
}

// SetCategory sets the category and returns to the first page.
func (m *Manager) SetCategory(readerID, category string) error {
	s, err := m.Session(readerID)
	if err != nil {
		return err
	}
	s.Category = category
	s.Page = 0
	m.refresh(s)
	return nil
}

// ChangePage moves delta pages and returns the new, clamped, page index.
func (m *Manager) ChangePage(readerID string, delta int) (int, error) {
	s, err := m.Session(readerID)
	if err != nil {
		return 0, err
	}
	s.Page = m.clampPage(s.Page+delta, len(s.DisplayIndices))
	return s.Page, nil
}

// PageCount returns the number of pages for n display entries. An empty
// view still has one page.
func (m *Manager) PageCount(n int) int {
	size := m.PageSize()
	return max(1, (n+size-1)/size)
}

func (m *Manager) clampPage(page, n int) int {
	return min(max(page, 0), m.PageCount(n)-1)
}

func (m *Manager) refresh(s *Session) {
	s.DisplayIndices = BuildDisplayIndices(s.AllStacks, m.catalog, s.Filter, s.Category, m.categories)
	s.Page = m.clampPage(s.Page, len(s.DisplayIndices))
}

// Page is one rendered page of a reader.
type Page struct {
	Index int
	Count int
	// Slots holds PageSize stacks; slots past the last entry are empty.
	Slots []item.Stack
	// Sources maps each slot to its AllStacks index, or -1.
	Sources []int
	// Matches is the number of entries passing the filter.
	Matches int
}

// RenderPage renders the current page and records which aggregate entry
// backs each slot.
func (m *Manager) RenderPage(readerID string) (Page, error) {
	s, err := m.Session(readerID)
	if err != nil {
		return Page{}, err
	}

	size := m.PageSize()
	s.Page = m.clampPage(s.Page, len(s.DisplayIndices))

	slots := item.EmptySlots(size)
	sources := make([]int, size)
	start := s.Page * size
	for k := range sources {
		sources[k] = -1
		if start+k >= len(s.DisplayIndices) {
			continue
		}
		src := s.DisplayIndices[start+k]
		slots[k] = s.AllStacks[src].Clone()
		sources[k] = src
	}
	s.SlotToSource = sources

	return Page{
		Index:   s.Page,
		Count:   m.PageCount(len(s.DisplayIndices)),
		Slots:   slots,
		Sources: append([]int(nil), sources...),
		Matches: len(s.DisplayIndices),
	}, nil
}

// UpdateSlotFromUI writes a stack edited in rendered slot back to the
// aggregate entry behind it. When the entry empties, the display list is
// rebuilt.
func (m *Manager) UpdateSlotFromUI(readerID string, slot int, updated item.Stack) error {
	s, src, err := m.source(readerID, slot)
	if err != nil {
		return err
	}
	if src < 0 {
		return fmt.Errorf("slot %d: %w", slot, ErrSlotEmpty)
	}

	s.AllStacks[src] = updated.Clone()
	if s.AllStacks[src].IsEmpty() {
		m.refresh(s)
	}
	return nil
}

// Take picks up one stack's worth from a rendered slot. Entries larger than
// the class stack limit give up one full stack and keep the rest.
func (m *Manager) Take(readerID string, slot int) (item.Stack, error) {
	s, src, err := m.source(readerID, slot)
	if err != nil {
		return item.Stack{}, err
	}
	if src < 0 || s.AllStacks[src].IsEmpty() {
		return item.Stack{}, fmt.Errorf("slot %d: %w", slot, ErrSlotEmpty)
	}
	return m.TakeAmount(readerID, slot, s.AllStacks[src].Count)
}

// TakeAmount picks up amount units from a rendered slot, at most one full
// stack and at most what the entry holds.
func (m *Manager) TakeAmount(readerID string, slot, amount int) (item.Stack, error) {
	if amount <= 0 {
		return item.Stack{}, ErrInvalidAmount
	}
	s, src, err := m.source(readerID, slot)
	if err != nil {
		return item.Stack{}, err
	}
	if src < 0 || s.AllStacks[src].IsEmpty() {
		return item.Stack{}, fmt.Errorf("slot %d: %w", slot, ErrSlotEmpty)
	}

	entry := s.AllStacks[src]
	limit := item.StackLimit(m.catalog, entry.Value.Type)
	amount = min(amount, entry.Count, limit)

	taken := entry.WithCount(amount)
	if err := m.UpdateSlotFromUI(readerID, slot, entry.WithCount(entry.Count-amount)); err != nil {
		return item.Stack{}, err
	}
	return taken, nil
}

func (m *Manager) source(readerID string, slot int) (*Session, int, error) {
	s, err := m.Session(readerID)
	if err != nil {
		return nil, 0, err
	}
	if slot < 0 || slot >= len(s.SlotToSource) {
		return nil, 0, fmt.Errorf("slot %d: %w", slot, ErrSlotOutOfRange)
	}
	src := s.SlotToSource[slot]
	if src >= len(s.AllStacks) {
		return nil, 0, fmt.Errorf("slot %d: %w", slot, ErrSlotOutOfRange)
	}
	return s, src, nil
}
