package main

import (
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/contract-sdk/artifact"
	"github.com/wippyai/contract-sdk/bindgen"
	"github.com/wippyai/contract-sdk/contract"
	"github.com/wippyai/contract-sdk/manifest"
	"github.com/wippyai/contract-sdk/snapshot"
	"github.com/wippyai/contract-sdk/testenv"
)

// Config keys. Every key can also be set as CONTRACTSPEC_<KEY> with
// dashes replaced by underscores.
const (
	cfgKeyDir     = "dir"
	cfgKeyVerbose = "verbose"
	cfgKeyColor   = "color"
)

// app is the state shared by all subcommands of one invocation.
type app struct {
	v        *viper.Viper
	log      *zap.Logger
	manifest *manifest.Manifest
	out      io.Writer
	color    bool
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), log: zap.NewNop()}
	a.v.SetEnvPrefix("CONTRACTSPEC")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "contractspec",
		Short:         "Inspect, embed and generate bindings for contract interface specs",
		Version:       contract.SDKVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
	}
	root.PersistentFlags().String(cfgKeyDir, "", "project directory searched for "+manifest.FileName+" (default: working directory)")
	root.PersistentFlags().BoolP(cfgKeyVerbose, "v", false, "log debug output to stderr")
	root.PersistentFlags().String(cfgKeyColor, "auto", "styled output: auto, always or never")

	root.AddCommand(
		newInspectCmd(a),
		newEmbedCmd(a),
		newBindgenCmd(a),
		newDiffCmd(a),
		newSnapshotCmd(a),
		newBrowseCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := a.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := a.v.BindPFlags(cmd.InheritedFlags()); err != nil {
		return err
	}
	a.out = cmd.OutOrStdout()

	if a.v.GetBool(cfgKeyVerbose) {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		a.log = l
	}
	contract.SetLogger(a.log)
	artifact.SetLogger(a.log)
	bindgen.SetLogger(a.log)
	snapshot.SetLogger(a.log)
	testenv.SetLogger(a.log)

	switch a.v.GetString(cfgKeyColor) {
	case "always":
		a.color = true
	case "never":
		a.color = false
	default:
		f, ok := a.out.(*os.File)
		a.color = ok && term.IsTerminal(int(f.Fd()))
	}

	dir := a.v.GetString(cfgKeyDir)
	if dir == "" {
		dir = "."
	}
	m, err := manifest.FindAndLoad(dir)
	if err != nil {
		return err
	}
	a.manifest = m
	if m != nil {
		a.log.Debug("loaded manifest", zap.String("dir", m.Dir), zap.String("contract", m.Contract.Name))
	}
	return nil
}

// input returns the positional file argument or, without one, the
// manifest path chosen by pick.
func (a *app) input(args []string, what string, pick func(*manifest.Manifest) string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if a.manifest != nil {
		if p := pick(a.manifest); p != "" {
			return a.manifest.Path(p), nil
		}
	}
	return "", usageError("no %s given and no %s sets one", what, manifest.FileName)
}
