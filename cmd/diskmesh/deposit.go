package main

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/diskmesh/diskmesh/internal/network"
	"github.com/diskmesh/diskmesh/internal/session"
	"github.com/diskmesh/diskmesh/internal/storage"
	"github.com/diskmesh/diskmesh/pkg/item"
)

func parseAmount(typeArg, countArg string) (int, int, error) {
	typeID, err := strconv.Atoi(typeArg)
	if err != nil || typeID <= item.EmptyType {
		return 0, 0, fmt.Errorf("invalid type id %q", typeArg)
	}
	count, err := strconv.Atoi(countArg)
	if err != nil || count <= 0 {
		return 0, 0, fmt.Errorf("invalid count %q", countArg)
	}
	return typeID, count, nil
}

func runDeposit(cmd *cobra.Command, args []string) error {
	pos, err := parsePos(args[0])
	if err != nil {
		return err
	}
	typeID, count, err := parseAmount(args[1], args[2])
	if err != nil {
		return err
	}
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if _, ok := e.world.Catalog().Class(typeID); !ok {
		return fmt.Errorf("unknown item type %d", typeID)
	}

	drives := network.DiscoverFrom(e.world, pos)
	if len(drives) == 0 {
		return fmt.Errorf("no drives reachable from %s", pos)
	}

	incoming := item.NewStack(item.Value{Type: typeID, Quality: depositQuality}, count)
	rest := e.engine.Deposit(drives, incoming)
	if err := e.save(); err != nil {
		return err
	}
	e.audit.LogDeposit(pos.Key(), typeID, count, count-rest.Count)

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deposited %d, returned %d\n", count-rest.Count, rest.Count)
	return nil
}

func runWithdraw(cmd *cobra.Command, args []string) error {
	pos, err := parsePos(args[0])
	if err != nil {
		return err
	}
	typeID, want, err := parseAmount(args[1], args[2])
	if err != nil {
		return err
	}
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if e.world.KindAt(pos) != network.KindReader {
		return fmt.Errorf("no reader at %s", pos)
	}
	inventory, _ := e.world.Container(pos)

	mgr := e.manager()
	s := mgr.Open(pos)

	taken, err := takeUnits(mgr, s.ReaderID, typeID, want, inventory)
	if err != nil {
		_, _ = mgr.Close(s.ReaderID)
		return err
	}

	report, err := mgr.Close(s.ReaderID)
	if err != nil {
		return err
	}
	if err := e.save(); err != nil {
		return err
	}

	e.audit.LogWithdrawal(s.ReaderID, report)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "withdrew %d of %d\n", taken, want)
	if short := report.TotalShortfall(); short > 0 {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "warning: %d units could not be found on any disk\n", short)
	}
	return nil
}

// takeUnits picks up quality-0 units of typeID through the reader, one
// pickup at a time, into inv until want units are taken, the network runs
// out, or inv is full.
func takeUnits(mgr *session.Manager, readerID string, typeID, want int, inv storage.Container) (int, error) {
	if err := mgr.SetFilter(readerID, ""); err != nil {
		return 0, err
	}

	taken := 0
	for taken < want {
		items := inv.Items()
		free := slices.IndexFunc(items, func(st item.Stack) bool { return st.IsEmpty() })
		if free < 0 {
			break
		}
		slot, err := findSlot(mgr, readerID, typeID)
		if err != nil {
			return taken, err
		}
		if slot < 0 {
			break
		}
		st, err := mgr.TakeAmount(readerID, slot, want-taken)
		if err != nil {
			return taken, err
		}
		items[free] = st
		inv.SetItems(items)
		taken += st.Count
	}
	return taken, nil
}

// findSlot renders pages from the first until it finds a quality-0 stack of
// typeID, returning its slot on the current page, or -1.
func findSlot(mgr *session.Manager, readerID string, typeID int) (int, error) {
	if _, err := mgr.ChangePage(readerID, -1<<30); err != nil {
		return -1, err
	}
	for {
		page, err := mgr.RenderPage(readerID)
		if err != nil {
			return -1, err
		}
		for k, st := range page.Slots {
			if !st.IsEmpty() && st.Value.Type == typeID && st.Value.Quality == 0 {
				return k, nil
			}
		}
		if page.Index >= page.Count-1 {
			return -1, nil
		}
		if _, err := mgr.ChangePage(readerID, 1); err != nil {
			return -1, err
		}
	}
}

func runDropBox(cmd *cobra.Command, args []string) error {
	pos, err := parsePos(args[0])
	if err != nil {
		return err
	}
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	moved, err := e.engine.FlushDropBox(e.world, pos)
	if err != nil {
		return err
	}
	if err := e.save(); err != nil {
		return err
	}
	e.audit.LogDropBox(pos.Key(), moved)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "moved %d units into the network\n", moved)
	return nil
}
