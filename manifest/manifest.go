// Package manifest handles contract.toml project configuration.
package manifest

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/wippyai/contract-sdk/bindgen"
	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/spec"
)

// FileName is the manifest file looked up in project directories.
const FileName = "contract.toml"

// Manifest represents a contract.toml project configuration.
type Manifest struct {
	Contract Contract          `toml:"contract"`
	Meta     map[string]string `toml:"meta"`
	Bindgen  Bindgen           `toml:"bindgen"`
	Snapshot Snapshot          `toml:"snapshot"`

	// Dir is the directory containing the contract.toml file (set at load time).
	Dir string `toml:"-"`
}

// Contract names the contract and its build artifacts.
type Contract struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	// Wasm is the compiled module the spec is embedded into.
	Wasm string `toml:"wasm"`
	// Spec is a standalone spec file, written next to the module.
	Spec string `toml:"spec"`
}

// Bindgen configures client generation.
type Bindgen struct {
	Package   string `toml:"package"`
	Client    string `toml:"client"`
	Output    string `toml:"output"`
	WIT       string `toml:"wit"`
	Interface string `toml:"interface"`
}

// Snapshot configures where storage snapshots are kept.
type Snapshot struct {
	Path     string `toml:"path"`
	Database string `toml:"database"`
}

// Load parses the contract.toml file in dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(errors.PhaseConfig, "read", path, err)
	}

	m, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, errors.IO(errors.PhaseConfig, "resolve", dir, err)
	}
	return m, nil
}

// Parse decodes manifest text. Unknown keys are rejected; name is used in
// error messages only.
func Parse(data []byte, name string) (*Manifest, error) {
	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidInput, err, "parse "+name)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path(name).
			Detail("unknown keys: %s", strings.Join(keys, ", ")).
			Build()
	}
	if err := m.validate(name); err != nil {
		return nil, err
	}
	m.defaults()
	return &m, nil
}

func (m *Manifest) validate(name string) error {
	if m.Contract.Name == "" {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Path(name, "contract", "name").
			Detail("contract name is required").
			Build()
	}
	for k := range m.Meta {
		if k == "" {
			return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
				Path(name, "meta").
				Detail("empty meta key").
				Build()
		}
	}
	return nil
}

func (m *Manifest) defaults() {
	if m.Contract.Spec == "" {
		m.Contract.Spec = m.Contract.Name + ".spec"
	}
	if m.Bindgen.Package == "" {
		m.Bindgen.Package = strings.ReplaceAll(strings.ToLower(m.Contract.Name), "-", "")
	}
	if m.Bindgen.Interface == "" {
		m.Bindgen.Interface = m.Contract.Name
	}
}

// FindAndLoad walks up from startDir to find a contract.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, errors.IO(errors.PhaseConfig, "resolve", startDir, err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// Path resolves p against the manifest directory. Empty stays empty.
func (m *Manifest) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// MetaEntries returns the [meta] table sorted by key, ready for
// contract.Builder.Meta or the contractmetav0 section.
func (m *Manifest) MetaEntries() []spec.MetaEntry {
	keys := make([]string, 0, len(m.Meta))
	for k := range m.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]spec.MetaEntry, len(keys))
	for i, k := range keys {
		out[i] = spec.MetaEntry{Key: k, Value: m.Meta[k]}
	}
	return out
}

// BindgenOptions returns the generator options for the Go client.
func (m *Manifest) BindgenOptions() bindgen.Options {
	return bindgen.Options{
		Package: m.Bindgen.Package,
		Client:  m.Bindgen.Client,
	}
}
