package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wippyai/contract-sdk/artifact"
	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/manifest"
	"github.com/wippyai/contract-sdk/spec"
)

func newInspectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Print the interface spec of a wasm module or spec file",
		Long: `Print every spec entry with its docs. For wasm modules the exported
functions and custom sections are listed too, and --verify checks that
each spec function is exported with the Val calling convention.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.input(args, "input file", func(m *manifest.Manifest) string { return m.Contract.Wasm })
			if err != nil {
				return err
			}
			return a.inspect(cmd, path)
		},
	}
	cmd.Flags().Bool("verify", false, "check spec functions against the module exports")
	cmd.Flags().Bool("summary", false, "one line per entry")
	return cmd
}

func (a *app) inspect(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.IO(errors.PhaseConfig, "read", path, err)
	}
	p := printer{color: a.color}
	out := a.out

	var entries []spec.Entry
	if isWasm(path, data) {
		info, err := artifact.Inspect(cmd.Context(), data)
		if err != nil {
			return err
		}
		entries = info.Spec

		fmt.Fprintln(out, p.style(titleStyle, "Module")+" "+path)
		fmt.Fprintf(out, "size: %d bytes\n", info.Size)
		fmt.Fprintf(out, "exports: %d, imports: %d\n", len(info.Exports), len(info.Imports))
		for _, c := range info.Customs {
			fmt.Fprintf(out, "  section %s (%d bytes)\n", c.Name, c.Size)
		}
		for _, m := range info.EnvMeta {
			fmt.Fprintf(out, "  env %s = %s\n", m.Key, m.Value)
		}
		for _, m := range info.Meta {
			fmt.Fprintf(out, "  meta %s = %s\n", m.Key, m.Value)
		}
		if !info.HasSpec {
			fmt.Fprintln(out, "no "+spec.SectionSpec+" section")
			return nil
		}
		if a.v.GetBool("verify") {
			if err := artifact.VerifyExports(info, entries); err != nil {
				return err
			}
			fmt.Fprintln(out, "exports match the spec")
		}
		fmt.Fprintln(out)
	} else {
		if entries, err = spec.Decode(data); err != nil {
			return err
		}
		fmt.Fprintln(out, p.style(titleStyle, "Spec")+" "+path)
		fmt.Fprintln(out)
	}

	summary := a.v.GetBool("summary")
	for i, e := range entries {
		if summary {
			fmt.Fprintln(out, p.summary(e))
			continue
		}
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprint(out, p.detail(e))
	}
	if summary {
		fmt.Fprintln(out, strings.Repeat("-", 20))
		fmt.Fprintf(out, "%d entries\n", len(entries))
	}
	return nil
}
