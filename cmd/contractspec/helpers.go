package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/contract-sdk/artifact"
	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/spec"
)

var wasmMagic = []byte("\x00asm")

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB86C"))

	docStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

func usageError(format string, args ...any) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).Detail(format, args...).Build()
}

// loadEntries reads a spec from a wasm module's custom section or from a
// standalone spec file.
func loadEntries(path string) ([]spec.Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.IO(errors.PhaseConfig, "read", path, err)
	}
	if isWasm(path, data) {
		return artifact.ReadSpec(data)
	}
	return spec.Decode(data)
}

func isWasm(path string, data []byte) bool {
	return strings.EqualFold(filepath.Ext(path), ".wasm") || bytes.HasPrefix(data, wasmMagic)
}

// printer renders spec entries, styled or plain.
type printer struct {
	color bool
}

func (p printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

func (p printer) shape(t spec.Type) string {
	return p.style(typeStyle, t.String())
}

// signature formats a function as name(param: Type, ...) -> Output.
func (p printer) signature(fs *spec.FunctionSpec) string {
	params := make([]string, len(fs.Inputs))
	for i, in := range fs.Inputs {
		params[i] = in.Name + ": " + p.shape(in.Type)
	}
	s := p.style(funcStyle, fs.Name) + "(" + strings.Join(params, ", ") + ")"
	if len(fs.Outputs) > 0 {
		s += " -> " + p.shape(fs.Outputs[0])
	}
	return s
}

// summary is the one-line form of an entry.
func (p printer) summary(e spec.Entry) string {
	kind := p.style(kindStyle, fmt.Sprintf("%-10s", e.EntryKind()))
	if fs, ok := e.(*spec.FunctionSpec); ok {
		return kind + " " + p.signature(fs)
	}
	return kind + " " + p.style(typeStyle, e.EntryName())
}

// detail is the multi-line form of an entry with docs and members.
func (p printer) detail(e spec.Entry) string {
	var b strings.Builder
	doc := func(indent, text string) {
		for _, line := range strings.Split(text, "\n") {
			if line != "" {
				b.WriteString(indent + p.style(docStyle, "// "+line) + "\n")
			}
		}
	}
	member := func(name string, t spec.Type, d string) {
		doc("    ", d)
		b.WriteString("    " + name + ": " + p.shape(t) + "\n")
	}

	switch e := e.(type) {
	case *spec.FunctionSpec:
		doc("", e.Doc)
		b.WriteString(p.signature(e) + "\n")
	case *spec.StructSpec:
		doc("", e.Doc)
		b.WriteString("struct " + p.style(typeStyle, e.Name) + libSuffix(e.Lib) + "\n")
		for _, f := range e.Fields {
			member(f.Name, f.Type, f.Doc)
		}
	case *spec.UnionSpec:
		doc("", e.Doc)
		b.WriteString("union " + p.style(typeStyle, e.Name) + libSuffix(e.Lib) + "\n")
		for _, c := range e.Cases {
			doc("    ", c.Doc)
			b.WriteString("    " + c.Name)
			if len(c.Types) > 0 {
				b.WriteString(p.shape(spec.Tuple(c.Types...)))
			}
			b.WriteString("\n")
		}
	case *spec.EnumSpec:
		doc("", e.Doc)
		b.WriteString("enum " + p.style(typeStyle, e.Name) + libSuffix(e.Lib) + "\n")
		p.enumCases(&b, e.Cases, doc)
	case *spec.ErrorEnumSpec:
		doc("", e.Doc)
		b.WriteString("errors " + p.style(typeStyle, e.Name) + libSuffix(e.Lib) + "\n")
		p.enumCases(&b, e.Cases, doc)
	case *spec.EventSpec:
		doc("", e.Doc)
		b.WriteString("event " + p.style(typeStyle, e.Name) + libSuffix(e.Lib) + "\n")
		if len(e.PrefixTopics) > 0 {
			b.WriteString("    prefix: " + strings.Join(e.PrefixTopics, ", ") + "\n")
		}
		for _, t := range e.Topics {
			member("topic "+t.Name, t.Type, t.Doc)
		}
		b.WriteString("    data: " + p.shape(e.Data) + "\n")
	}
	return b.String()
}

func (p printer) enumCases(b *strings.Builder, cases []spec.EnumCase, doc func(indent, text string)) {
	for _, c := range cases {
		doc("    ", c.Doc)
		fmt.Fprintf(b, "    %s = %d\n", c.Name, c.Value)
	}
}

func libSuffix(lib string) string {
	if lib == "" {
		return ""
	}
	return " (from " + lib + ")"
}
