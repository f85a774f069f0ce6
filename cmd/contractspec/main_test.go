package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/contract-sdk/contract"
	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/host"
	"github.com/wippyai/contract-sdk/snapshot"
	"github.com/wippyai/contract-sdk/spec"
	"github.com/wippyai/contract-sdk/val"
)

var emptyModule = []byte("\x00asm\x01\x00\x00\x00")

func increment(env *contract.Env, by uint32) (uint32, error) {
	n, err := contract.GetOr(env.Instance(), val.Symbol("count"), uint32(0))
	if err != nil {
		return 0, err
	}
	n += by
	return n, env.Instance().Set(val.Symbol("count"), n)
}

func reset(env *contract.Env) error {
	return env.Instance().Remove(val.Symbol("count"))
}

func counter(t *testing.T, withReset bool) *contract.Contract {
	t.Helper()
	b := contract.New("counter").
		Export("increment", increment, "by").Doc("Adds by to the counter.")
	if withReset {
		b = b.Export("reset", reset)
	}
	c, err := b.Build()
	require.NoError(t, err)
	return c
}

// project writes counter.spec and an empty module.wasm into a temp dir.
func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, counter(t, false).WriteSpec(filepath.Join(dir, "counter.spec")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "module.wasm"), emptyModule, 0o644))
	return dir
}

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--dir", dir, "--color", "never"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestInspect_SpecFile(t *testing.T) {
	dir := project(t)
	out, err := run(t, dir, "inspect", filepath.Join(dir, "counter.spec"))
	require.NoError(t, err)
	assert.Contains(t, out, "Spec ")
	assert.Contains(t, out, "// Adds by to the counter.\n")
	assert.Contains(t, out, "increment(by: u32) -> u32\n")
}

func TestInspect_Summary(t *testing.T) {
	dir := project(t)
	out, err := run(t, dir, "inspect", "--summary", filepath.Join(dir, "counter.spec"))
	require.NoError(t, err)
	assert.Contains(t, out, "function   increment(by: u32) -> u32\n")
	assert.Contains(t, out, "1 entries\n")
	assert.NotContains(t, out, "// Adds")
}

func TestEmbedThenInspect(t *testing.T) {
	dir := project(t)
	wasm := filepath.Join(dir, "module.wasm")

	out, err := run(t, dir, "embed", "--spec", filepath.Join(dir, "counter.spec"), "--meta", "Home=example.org", wasm)
	require.NoError(t, err)
	assert.Contains(t, out, "embedded 1 entries")

	entries, err := loadEntries(wasm)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "increment", entries[0].EntryName())

	out, err = run(t, dir, "inspect", wasm)
	require.NoError(t, err)
	assert.Contains(t, out, "section "+spec.SectionSpec)
	assert.Contains(t, out, "meta Home = example.org\n")
	assert.Contains(t, out, "env "+spec.MetaSDKVersion+" = "+contract.SDKVersion+"\n")
	assert.Contains(t, out, "increment(by: u32) -> u32")

	_, err = run(t, dir, "inspect", "--verify", wasm)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestInspect_NoSpecSection(t *testing.T) {
	dir := project(t)
	out, err := run(t, dir, "inspect", filepath.Join(dir, "module.wasm"))
	require.NoError(t, err)
	assert.Contains(t, out, "no "+spec.SectionSpec+" section")
}

func TestBindgen_Go(t *testing.T) {
	dir := project(t)
	out, err := run(t, dir, "bindgen", "--package", "counterclient", filepath.Join(dir, "counter.spec"))
	require.NoError(t, err)
	assert.Contains(t, out, "package counterclient")
	assert.Contains(t, out, "Increment(")
}

func TestBindgen_WITFromEnv(t *testing.T) {
	dir := project(t)
	t.Setenv("CONTRACTSPEC_LANG", "wit")
	out, err := run(t, dir, "bindgen", filepath.Join(dir, "counter.spec"))
	require.NoError(t, err)
	assert.Contains(t, out, "interface counter {")
	assert.Contains(t, out, "increment: func(by: u32) -> u32;")
}

func TestBindgen_UnknownLang(t *testing.T) {
	dir := project(t)
	_, err := run(t, dir, "bindgen", "--lang", "rust", filepath.Join(dir, "counter.spec"))
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestBindgen_Manifest(t *testing.T) {
	dir := project(t)
	manifest := `
[contract]
name = "counter"
spec = "counter.spec"

[bindgen]
output = "gen/client.go"
wit = "wit/counter.wit"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contract.toml"), []byte(manifest), 0o644))

	out, err := run(t, dir, "bindgen")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote ")

	src, err := os.ReadFile(filepath.Join(dir, "gen", "client.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "package counter")

	_, err = run(t, dir, "bindgen", "--lang", "wit")
	require.NoError(t, err)
	wit, err := os.ReadFile(filepath.Join(dir, "wit", "counter.wit"))
	require.NoError(t, err)
	assert.Contains(t, string(wit), "interface counter {")
}

func TestMissingInput(t *testing.T) {
	dir := t.TempDir()
	for _, args := range [][]string{
		{"inspect"},
		{"bindgen"},
		{"embed"},
		{"snapshot", "show"},
		{"snapshot", "list"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, err := run(t, dir, args...)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidInput)
		})
	}
}

func TestDiff(t *testing.T) {
	dir := project(t)
	newer := filepath.Join(dir, "counter2.spec")
	require.NoError(t, counter(t, true).WriteSpec(newer))
	old := filepath.Join(dir, "counter.spec")

	out, err := run(t, dir, "diff", old, newer)
	require.NoError(t, err)
	assert.Contains(t, out, "+ function reset\n")

	out, err = run(t, dir, "diff", old, old)
	require.NoError(t, err)
	assert.Equal(t, "no changes\n", out)

	_, err = run(t, dir, "diff", "--fail", old, newer)
	assert.Error(t, err)
}

func TestSnapshot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "state.snap")
	db := filepath.Join(dir, "snapshots.db")

	s := snapshot.New()
	s.Ledger.SequenceNumber = 42
	owner := val.Address{Type: val.AddressContract}
	owner.ID[0] = 7
	s.Entries = []snapshot.Entry{{
		Contract:   owner,
		Key:        val.Symbol("count"),
		Value:      val.U32(9),
		Durability: host.Persistent,
	}}
	require.NoError(t, s.SaveFile(file))

	out, err := run(t, dir, "snapshot", "show", file)
	require.NoError(t, err)
	assert.Contains(t, out, "sequence: 42")
	assert.Contains(t, out, "count = 9u32")
	assert.Contains(t, out, owner.String())

	out, err = run(t, dir, "snapshot", "save", "--db", db, "base", file)
	require.NoError(t, err)
	assert.Equal(t, "saved base (1 entries)\n", out)

	out, err = run(t, dir, "snapshot", "list", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "base\n", out)

	restored := filepath.Join(dir, "restored.snap")
	_, err = run(t, dir, "snapshot", "load", "--db", db, "base", restored)
	require.NoError(t, err)
	back, err := snapshot.LoadFile(restored)
	require.NoError(t, err)
	require.Len(t, back.Entries, 1)
	assert.Equal(t, val.Value(val.U32(9)), back.Entries[0].Value)

	_, err = run(t, dir, "snapshot", "rm", "--db", db, "base")
	require.NoError(t, err)
	out, err = run(t, dir, "snapshot", "list", "--db", db)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestBrowseModel(t *testing.T) {
	m := newBrowseModel("counter.spec")
	assert.Equal(t, "Loading spec...", m.View())

	m.Update(entriesMsg{entries: counter(t, true).Spec()})
	view := m.View()
	assert.Contains(t, view, "(2/2)")
	assert.Contains(t, view, "increment")
	assert.Contains(t, view, "reset")

	m.Update(key("down"))
	assert.Equal(t, 1, m.selected)
	m.Update(key("enter"))
	assert.Equal(t, stateDetail, m.state)
	m.Update(key("esc"))
	assert.Equal(t, stateList, m.state)

	m.Update(key("/"))
	assert.Equal(t, stateFilter, m.state)
	m.Update(key("inc"))
	m.Update(key("enter"))
	assert.Equal(t, stateList, m.state)
	assert.Len(t, m.visible, 1)
	assert.Equal(t, 0, m.selected)
	assert.Contains(t, m.View(), "(1/2)")

	m.Update(key("esc"))
	assert.Len(t, m.visible, 2)
}

func TestBrowseModel_LoadError(t *testing.T) {
	m := newBrowseModel(filepath.Join(t.TempDir(), "missing.spec"))
	m.Update(m.load())
	assert.Contains(t, m.View(), "Error:")
}
