package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wippyai/contract-sdk/spec"
)

func newDiffCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff OLD NEW",
		Short: "List entries added, removed or changed between two specs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			old, err := loadEntries(args[0])
			if err != nil {
				return err
			}
			cur, err := loadEntries(args[1])
			if err != nil {
				return err
			}
			changes, err := spec.Diff(old, cur)
			if err != nil {
				return err
			}
			if len(changes) == 0 {
				fmt.Fprintln(a.out, "no changes")
				return nil
			}
			p := printer{color: a.color}
			for _, c := range changes {
				mark := map[spec.ChangeKind]string{spec.Added: "+", spec.Removed: "-", spec.Changed: "~"}[c.Kind]
				fmt.Fprintf(a.out, "%s %s %s\n", mark, p.style(kindStyle, c.Entry.String()), c.Name)
			}
			if a.v.GetBool("fail") {
				return usageError("%d entries differ", len(changes))
			}
			return nil
		},
	}
	cmd.Flags().Bool("fail", false, "exit with an error when the specs differ")
	return cmd
}
