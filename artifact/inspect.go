package artifact

import (
	"cmp"
	"context"
	"slices"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/spec"
)

// Function describes an exported or imported function signature.
type Function struct {
	Module  string // import module, empty for exports
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// Custom is a custom section as reported by the runtime.
type Custom struct {
	Name string
	Size int
}

// Info summarizes a compiled contract module.
type Info struct {
	Exports []Function
	Imports []Function
	Customs []Custom
	Spec    []spec.Entry
	Meta    []spec.MetaEntry
	EnvMeta []spec.MetaEntry
	Size    int
	HasSpec bool
}

// Export returns the export named name.
func (i *Info) Export(name string) (Function, bool) {
	for _, f := range i.Exports {
		if f.Name == name {
			return f, true
		}
	}
	return Function{}, false
}

// Inspect validates wasm by compiling it and decodes the SDK sections.
// A module without a spec section is valid; HasSpec is false.
func Inspect(ctx context.Context, wasm []byte) (*Info, error) {
	rt := wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter().WithCustomSections(true))
	defer rt.Close(ctx)

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseArtifact, errors.KindInvalidInput, err, "compile module")
	}
	defer compiled.Close(ctx)

	info := &Info{Size: len(wasm)}
	for name, def := range compiled.ExportedFunctions() {
		info.Exports = append(info.Exports, Function{
			Name:    name,
			Params:  def.ParamTypes(),
			Results: def.ResultTypes(),
		})
	}
	slices.SortFunc(info.Exports, func(a, b Function) int { return cmp.Compare(a.Name, b.Name) })

	for _, def := range compiled.ImportedFunctions() {
		module, name, _ := def.Import()
		info.Imports = append(info.Imports, Function{
			Module:  module,
			Name:    name,
			Params:  def.ParamTypes(),
			Results: def.ResultTypes(),
		})
	}

	for _, cs := range compiled.CustomSections() {
		info.Customs = append(info.Customs, Custom{Name: cs.Name(), Size: len(cs.Data())})
	}

	if info.Spec, info.HasSpec, err = readSpec(wasm); err != nil {
		return nil, err
	}
	if info.Meta, err = ReadMeta(wasm, spec.SectionMeta); err != nil {
		return nil, err
	}
	if info.EnvMeta, err = ReadMeta(wasm, spec.SectionEnvMeta); err != nil {
		return nil, err
	}

	Logger().Debug("inspected module",
		zap.Int("size", info.Size),
		zap.Int("exports", len(info.Exports)),
		zap.Int("spec_entries", len(info.Spec)))
	return info, nil
}

// ReadSpec decodes the interface specification embedded in wasm. A
// missing section is reported as not found.
func ReadSpec(wasm []byte) ([]spec.Entry, error) {
	entries, ok, err := readSpec(wasm)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NotFound(errors.PhaseArtifact, "custom section", spec.SectionSpec)
	}
	return entries, nil
}

func readSpec(wasm []byte) ([]spec.Entry, bool, error) {
	parts, err := CustomSections(wasm, spec.SectionSpec)
	if err != nil || len(parts) == 0 {
		return nil, false, err
	}
	var data []byte
	for _, p := range parts {
		data = append(data, p...)
	}
	entries, err := spec.Decode(data)
	if err != nil {
		return nil, true, err
	}
	return entries, true, nil
}

// ReadMeta decodes a metadata section. A missing section yields no entries.
func ReadMeta(wasm []byte, section string) ([]spec.MetaEntry, error) {
	data, err := CustomSection(wasm, section)
	if err != nil || data == nil {
		return nil, err
	}
	return spec.DecodeMeta(data)
}

// VerifyExports checks that every function in entries is exported with
// the Val calling convention: one i64 per input and a single i64 result.
func VerifyExports(info *Info, entries []spec.Entry) error {
	for _, e := range entries {
		fn, ok := e.(*spec.FunctionSpec)
		if !ok {
			continue
		}
		exp, ok := info.Export(fn.Name)
		if !ok {
			return errors.NotFound(errors.PhaseArtifact, "exported function", fn.Name)
		}
		if len(exp.Params) != len(fn.Inputs) || !allI64(exp.Params) {
			return errors.New(errors.PhaseArtifact, errors.KindInvalidInput).
				Function(fn.Name).
				Detail("export takes %s, want %d i64 parameters", describe(exp.Params), len(fn.Inputs)).
				Build()
		}
		if len(exp.Results) != 1 || !allI64(exp.Results) {
			return errors.New(errors.PhaseArtifact, errors.KindInvalidInput).
				Function(fn.Name).
				Detail("export returns %s, want a single i64", describe(exp.Results)).
				Build()
		}
	}
	return nil
}

func allI64(types []api.ValueType) bool {
	for _, t := range types {
		if t != api.ValueTypeI64 {
			return false
		}
	}
	return true
}

func describe(types []api.ValueType) string {
	if len(types) == 0 {
		return "()"
	}
	s := "("
	for i, t := range types {
		if i > 0 {
			s += ", "
		}
		s += api.ValueTypeName(t)
	}
	return s + ")"
}
