package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wippyai/contract-sdk/manifest"
	"github.com/wippyai/contract-sdk/snapshot"
	"github.com/wippyai/contract-sdk/val"
)

func newSnapshotCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Show snapshot files and manage a snapshot database",
	}
	cmd.PersistentFlags().String("db", "", "snapshot database (default: manifest snapshot.database)")

	show := &cobra.Command{
		Use:   "show [file]",
		Short: "Print the ledger and entries of a snapshot file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.input(args, "snapshot file", func(m *manifest.Manifest) string { return m.Snapshot.Path })
			if err != nil {
				return err
			}
			snap, err := snapshot.LoadFile(path)
			if err != nil {
				return err
			}
			a.printSnapshot(snap)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List snapshots stored in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(st *snapshot.SQLiteStore) error {
				names, err := st.Names(cmd.Context())
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(a.out, n)
				}
				return nil
			})
		},
	}

	save := &cobra.Command{
		Use:   "save NAME FILE",
		Short: "Store a snapshot file in the database under NAME",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := snapshot.LoadFile(args[1])
			if err != nil {
				return err
			}
			return a.withStore(func(st *snapshot.SQLiteStore) error {
				if err := st.Save(cmd.Context(), args[0], snap); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "saved %s (%d entries)\n", args[0], len(snap.Entries))
				return nil
			})
		},
	}

	load := &cobra.Command{
		Use:   "load NAME FILE",
		Short: "Write the snapshot stored under NAME to FILE",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(st *snapshot.SQLiteStore) error {
				snap, err := st.Load(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if err := snap.SaveFile(args[1]); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "wrote %s (%d entries)\n", args[1], len(snap.Entries))
				return nil
			})
		},
	}

	rm := &cobra.Command{
		Use:   "rm NAME",
		Short: "Delete a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(st *snapshot.SQLiteStore) error {
				return st.Delete(cmd.Context(), args[0])
			})
		},
	}

	cmd.AddCommand(show, list, save, load, rm)
	return cmd
}

func (a *app) withStore(fn func(*snapshot.SQLiteStore) error) error {
	db := a.v.GetString("db")
	if db == "" && a.manifest != nil {
		db = a.manifest.Path(a.manifest.Snapshot.Database)
	}
	if db == "" {
		return usageError("no --db given and no %s sets snapshot.database", manifest.FileName)
	}
	st, err := snapshot.OpenSQLite(db)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func (a *app) printSnapshot(snap *snapshot.Snapshot) {
	p := printer{color: a.color}
	li := snap.Ledger
	fmt.Fprintln(a.out, p.style(titleStyle, "Ledger"))
	fmt.Fprintf(a.out, "  sequence: %d\n  timestamp: %d\n  protocol: %d\n", li.SequenceNumber, li.Timestamp, li.ProtocolVersion)
	fmt.Fprintf(a.out, "  ttl: temporary %d, persistent %d, max %d\n", li.MinTempEntryTTL, li.MinPersistentEntryTTL, li.MaxEntryTTL)
	fmt.Fprintln(a.out)

	fmt.Fprintln(a.out, p.style(titleStyle, "Entries")+" "+strconv.Itoa(len(snap.Entries)))
	var last val.Address
	for i, e := range snap.Entries {
		if i == 0 || e.Contract != last {
			fmt.Fprintln(a.out, p.style(funcStyle, e.Contract.String()))
			last = e.Contract
		}
		ttl := "-"
		if e.LiveUntil != nil {
			ttl = strconv.FormatUint(uint64(*e.LiveUntil), 10)
		}
		fmt.Fprintf(a.out, "  %-10s %s = %s  %s\n",
			p.style(kindStyle, e.Durability.String()),
			val.Format(e.Key),
			val.Format(e.Value),
			p.style(docStyle, "live until "+ttl))
	}
}
