package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wippyai/contract-sdk/bindgen"
	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/internal/fsutil"
	"github.com/wippyai/contract-sdk/manifest"
)

func newBindgenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bindgen [file]",
		Short: "Generate a Go client or WIT interface from a spec",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.input(args, "input file", func(m *manifest.Manifest) string { return m.Contract.Spec })
			if err != nil {
				return err
			}
			return a.bindgen(path)
		},
	}
	cmd.Flags().String("lang", "go", "output language: go or wit")
	cmd.Flags().StringP("out", "o", "", "output file (default: manifest bindgen output, else stdout)")
	cmd.Flags().String("package", "", "Go package name")
	cmd.Flags().String("client", "", "Go client type name")
	cmd.Flags().String("interface", "", "WIT interface name")
	return cmd
}

func (a *app) bindgen(path string) error {
	entries, err := loadEntries(path)
	if err != nil {
		return err
	}

	var m manifest.Manifest
	if a.manifest != nil {
		m = *a.manifest
	}
	out := a.v.GetString("out")

	var src []byte
	switch lang := a.v.GetString("lang"); lang {
	case "go":
		opts := m.BindgenOptions()
		if v := a.v.GetString("package"); v != "" {
			opts.Package = v
		}
		if v := a.v.GetString("client"); v != "" {
			opts.Client = v
		}
		if out == "" && a.manifest != nil {
			out = m.Path(m.Bindgen.Output)
		}
		if src, err = bindgen.GenerateGo(entries, opts); err != nil {
			return err
		}

	case "wit":
		iface := a.v.GetString("interface")
		if iface == "" {
			iface = m.Bindgen.Interface
		}
		if iface == "" {
			iface = trimExt(filepath.Base(path))
		}
		if out == "" && a.manifest != nil {
			out = m.Path(m.Bindgen.WIT)
		}
		text, err := bindgen.GenerateWIT(entries, iface)
		if err != nil {
			return err
		}
		src = []byte(text)

	default:
		return usageError("unknown --lang %q, want go or wit", lang)
	}

	if out == "" || out == "-" {
		_, err := a.out.Write(src)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return errors.IO(errors.PhaseBindgen, "mkdir", filepath.Dir(out), err)
	}
	if err := fsutil.WriteFileAtomic(out, src, 0o644); err != nil {
		return errors.IO(errors.PhaseBindgen, "write", out, err)
	}
	fmt.Fprintf(a.out, "wrote %s\n", out)
	return nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
