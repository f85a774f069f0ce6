package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wippyai/contract-sdk/contract"
	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/internal/fsutil"
	"github.com/wippyai/contract-sdk/manifest"
	"github.com/wippyai/contract-sdk/spec"
)

func newEmbedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embed [module.wasm]",
		Short: "Write a spec file and meta into a wasm module's custom sections",
		Long: `Embed replaces the contractspecv0, contractenvmetav0 and contractmetav0
sections of a module. The spec comes from --spec or the manifest; author
meta comes from the manifest [meta] table and --meta key=value flags.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.input(args, "module", func(m *manifest.Manifest) string { return m.Contract.Wasm })
			if err != nil {
				return err
			}
			return a.embed(cmd, path)
		},
	}
	cmd.Flags().String("spec", "", "spec file to embed (default: manifest contract.spec)")
	cmd.Flags().StringP("out", "o", "", "output module (default: overwrite the input)")
	cmd.Flags().StringToString("meta", nil, "extra meta entries, key=value")
	return cmd
}

func (a *app) embed(cmd *cobra.Command, path string) error {
	specPath := a.v.GetString("spec")
	if specPath == "" && a.manifest != nil {
		specPath = a.manifest.Path(a.manifest.Contract.Spec)
	}
	if specPath == "" {
		return usageError("no spec file given and no %s sets one", manifest.FileName)
	}

	entries, err := spec.ReadFile(specPath)
	if err != nil {
		return err
	}
	specBytes, err := spec.Encode(entries)
	if err != nil {
		return err
	}

	wasm, err := os.ReadFile(path)
	if err != nil {
		return errors.IO(errors.PhaseConfig, "read", path, err)
	}

	var meta []spec.MetaEntry
	if a.manifest != nil {
		meta = a.manifest.MetaEntries()
	}
	extra, err := metaFlag(cmd)
	if err != nil {
		return err
	}
	meta = append(meta, extra...)

	out, err := contract.EmbedSpec(wasm, specBytes, meta)
	if err != nil {
		return err
	}

	dest := a.v.GetString("out")
	if dest == "" {
		dest = path
	}
	if err := fsutil.WriteFileAtomic(dest, out, 0o644); err != nil {
		return errors.IO(errors.PhaseArtifact, "write", dest, err)
	}
	fmt.Fprintf(a.out, "embedded %d entries (%d bytes) into %s\n", len(entries), len(specBytes), dest)
	return nil
}

// metaFlag returns the --meta pairs sorted by key. Keys keep their case,
// so the flag is read from cobra rather than viper.
func metaFlag(cmd *cobra.Command) ([]spec.MetaEntry, error) {
	m, err := cmd.Flags().GetStringToString("meta")
	if err != nil {
		return nil, err
	}
	for k := range m {
		if k == "" {
			return nil, usageError("empty --meta key")
		}
	}
	return (&manifest.Manifest{Meta: m}).MetaEntries(), nil
}
