package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/diskmesh/diskmesh/internal/network"
	"github.com/diskmesh/diskmesh/pkg/item"
)

func runNetwork(cmd *cobra.Command, args []string) error {
	pos, err := parsePos(args[0])
	if err != nil {
		return err
	}
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	drives := network.DiscoverFrom(e.world, pos)
	out := cmd.OutOrStdout()
	if len(drives) == 0 {
		_, _ = fmt.Fprintln(out, "no drives reachable")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "DRIVE\tCELLS\tDISKS")
	for _, d := range drives {
		wd, err := e.world.Drive(d.ID())
		if err != nil {
			continue
		}
		cells := make([]string, 0, len(wd.Cells()))
		for _, c := range wd.Cells() {
			cells = append(cells, c.Key())
		}
		disks := 0
		for _, b := range d.Bays() {
			if e.media.IsDisk(b) {
				disks++
			}
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\n", d.ID(), strings.Join(cells, " "), disks)
	}
	return tw.Flush()
}

func runDisks(cmd *cobra.Command, args []string) error {
	pos, err := parsePos(args[0])
	if err != nil {
		return err
	}
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	inv := e.engine.Inventory(network.DiscoverFrom(e.world, pos))
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "DRIVE\tBAY\tTIER\tSLOTS\tUNITS")
	for _, d := range inv {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%d/%d\t%d\n", d.DriveID, d.Bay, d.Tier, d.UsedSlots, d.Capacity, d.Units)
	}
	return tw.Flush()
}

func runView(cmd *cobra.Command, args []string) error {
	pos, err := parsePos(args[0])
	if err != nil {
		return err
	}
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.close()

	mgr := e.manager()
	s := mgr.Open(pos)
	defer func() { _, _ = mgr.Close(s.ReaderID) }()

	if err := mgr.SetFilter(s.ReaderID, viewFilter); err != nil {
		return err
	}
	if err := mgr.SetCategory(s.ReaderID, viewCategory); err != nil {
		return err
	}
	if _, err := mgr.ChangePage(s.ReaderID, viewPage); err != nil {
		return err
	}
	page, err := mgr.RenderPage(s.ReaderID)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "SLOT\tITEM\tTYPE\tQUALITY\tCOUNT")
	for k, st := range page.Slots {
		if st.IsEmpty() {
			continue
		}
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\n", k, displayName(e.world.Catalog(), st.Value.Type), st.Value.Type, st.Value.Quality, st.Count)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "page %d/%d, %d entries\n", page.Index+1, page.Count, page.Matches)
	return nil
}

func displayName(c item.Catalog, typeID int) string {
	cls, ok := c.Class(typeID)
	if !ok {
		return "?"
	}
	return cls.LocalizedName()
}
