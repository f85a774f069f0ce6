package bindgen_test

import (
	stderrors "errors"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/wippyai/contract-sdk/bindgen"
	"github.com/wippyai/contract-sdk/errors"
	"github.com/wippyai/contract-sdk/spec"
)

// decls parses src and returns its top-level names; methods are listed
// as Recv.Name.
func decls(t *testing.T, src []byte) (*ast.File, map[string]bool) {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "client.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("generated source does not parse: %v\n%s", err, src)
	}
	names := make(map[string]bool)
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.GenDecl:
			for _, s := range d.Specs {
				switch s := s.(type) {
				case *ast.TypeSpec:
					names[s.Name.Name] = true
				case *ast.ValueSpec:
					for _, n := range s.Names {
						names[n.Name] = true
					}
				}
			}
		case *ast.FuncDecl:
			name := d.Name.Name
			if d.Recv != nil {
				recv := d.Recv.List[0].Type
				if star, ok := recv.(*ast.StarExpr); ok {
					recv = star.X
				}
				name = recv.(*ast.Ident).Name + "." + name
			}
			names[name] = true
		}
	}
	return f, names
}

// squash collapses runs of whitespace so checks ignore gofmt alignment.
func squash(src []byte) string {
	return strings.Join(strings.Fields(string(src)), " ")
}

func TestGenerateGo(t *testing.T) {
	src, err := bindgen.GenerateGo(exchange.Spec(), bindgen.Options{Package: "exchange", Client: "Exchange"})
	if err != nil {
		t.Fatal(err)
	}
	f, names := decls(t, src)

	if f.Name.Name != "exchange" {
		t.Errorf("package = %s, want exchange", f.Name.Name)
	}
	if !strings.HasPrefix(string(src), "// Code generated by contractspec bindgen. DO NOT EDIT.") {
		t.Errorf("missing generated header:\n%s", src)
	}

	for _, want := range []string{
		"Side", "SideBuy", "SideSell", "Side.ContractEnum",
		"TradeError", "TradeErrorZeroAmount", "TradeError.ContractErrors", "TradeError.Error",
		"Position",
		"Order", "Order.ContractUnion",
		"Tuple", "Tuple.ContractTuple",
		"Exchange", "NewExchange",
		"Exchange.Open", "Exchange.PositionOf", "Exchange.Place", "Exchange.Total",
	} {
		if !names[want] {
			t.Errorf("missing declaration %s", want)
		}
	}
	if names["Position.ContractName"] {
		t.Error("ContractName generated for a type whose Go name matches")
	}
	if names["Position.ContractLayout"] {
		t.Error("ContractLayout generated for a positional struct")
	}

	for _, want := range []string{
		"func (c *Exchange) Open(ctx context.Context, owner val.Address, side Side, amount uint64) error",
		"func (c *Exchange) PositionOf(ctx context.Context, owner val.Address) (*Position, error)",
		"func (c *Exchange) Total(ctx context.Context, amounts map[val.Symbol]uint64) (uint64, error)",
		"err = TradeError(code)",
		"Limit *Tuple `contract:\"Limit\"`",
		"Amount uint64 `contract:\"amount\"`",
	} {
		if !strings.Contains(squash(src), want) {
			t.Errorf("generated source lacks %q:\n%s", want, src)
		}
	}
}

func TestGenerateGo_Names(t *testing.T) {
	entries := []spec.Entry{
		&spec.StructSpec{Name: "price_point", Layout: spec.LayoutMap, Fields: []spec.Field{
			{Name: "0", Type: spec.U32},
			{Name: "value", Type: spec.I128, Doc: "Scaled by 1e7."},
		}},
		&spec.FunctionSpec{Name: "set", Inputs: []spec.Param{
			{Name: "type", Type: spec.U32},
			{Name: "ctx", Type: spec.UDT("price_point")},
		}},
	}
	src, err := bindgen.GenerateGo(entries, bindgen.Options{})
	if err != nil {
		t.Fatal(err)
	}
	f, names := decls(t, src)
	if f.Name.Name != "client" {
		t.Errorf("package = %s, want client", f.Name.Name)
	}
	for _, want := range []string{"PricePoint", "PricePoint.ContractName", "PricePoint.ContractLayout", "Client", "NewClient", "Client.Set"} {
		if !names[want] {
			t.Errorf("missing declaration %s", want)
		}
	}
	for _, want := range []string{
		"(ctx context.Context, typeArg uint32, ctxArg PricePoint) error",
		"return \"price_point\"",
		"F0 uint32 `contract:\"0\"`",
		"// Scaled by 1e7.",
	} {
		if !strings.Contains(squash(src), want) {
			t.Errorf("generated source lacks %q:\n%s", want, src)
		}
	}
}

func TestGenerateGo_Recursive(t *testing.T) {
	entries := []spec.Entry{
		&spec.UnionSpec{Name: "Expr", Cases: []spec.UnionCase{
			{Name: "Lit", Types: []spec.Type{spec.I64}},
			{Name: "Add", Types: []spec.Type{spec.UDT("Expr"), spec.UDT("Expr")}},
		}},
		&spec.FunctionSpec{Name: "eval", Inputs: []spec.Param{{Name: "e", Type: spec.UDT("Expr")}}, Outputs: []spec.Type{spec.I64}},
	}
	src, err := bindgen.GenerateGo(entries, bindgen.Options{})
	if err != nil {
		t.Fatal(err)
	}
	_, names := decls(t, src)
	if !names["Expr"] || !names["Client.Eval"] {
		t.Errorf("missing declarations in:\n%s", src)
	}
}

func TestGenerateGo_UnsupportedShape(t *testing.T) {
	tests := []struct {
		name    string
		entries []spec.Entry
		fn      string
		param   string
	}{
		{
			"non-comparable map key",
			[]spec.Entry{&spec.FunctionSpec{Name: "f", Inputs: []spec.Param{{Name: "m", Type: spec.Map(spec.Bytes, spec.U32)}}}},
			"f", "m",
		},
		{
			"non-comparable key in output",
			[]spec.Entry{&spec.FunctionSpec{Name: "g", Outputs: []spec.Type{spec.Vec(spec.Map(spec.Vec(spec.U32), spec.U32))}}},
			"g", "result",
		},
		{
			"single tuple payload",
			[]spec.Entry{
				&spec.UnionSpec{Name: "U", Cases: []spec.UnionCase{{Name: "Pair", Types: []spec.Type{spec.Tuple(spec.U32, spec.U32)}}}},
				&spec.FunctionSpec{Name: "h", Inputs: []spec.Param{{Name: "u", Type: spec.UDT("U")}}},
			},
			"h", "u",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bindgen.GenerateGo(tt.entries, bindgen.Options{})
			if !stderrors.Is(err, errors.ErrUnsupportedShape) {
				t.Fatalf("err = %v, want unsupported shape", err)
			}
			var e *errors.Error
			stderrors.As(err, &e)
			if e.Function != tt.fn || e.Param != tt.param {
				t.Errorf("at %s/%s, want %s/%s", e.Function, e.Param, tt.fn, tt.param)
			}
		})
	}
}
