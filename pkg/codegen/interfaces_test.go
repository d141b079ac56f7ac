package codegen

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/metabolize/werkit/pkg/types"
)

func builtInGraph() *types.DependencyGraph {
	g := types.NewDependencyGraph()
	g.Inputs.Set("a", types.Input{ValueType: types.Number})
	g.Inputs.Set("b", types.Input{ValueType: types.Number})
	g.Intermediates.Set("i", types.ComputeNode{ValueType: types.Number, Dependencies: []string{"a"}})
	g.Intermediates.Set("j", types.ComputeNode{ValueType: types.Number, Dependencies: []string{"b"}})
	g.Outputs.Set("r", types.ComputeNode{ValueType: types.Number, Dependencies: []string{"i", "j"}})
	return g
}

func customTypeGraph() *types.DependencyGraph {
	g := types.NewDependencyGraph()
	g.Inputs.Set("a", types.Input{ValueType: types.Number})
	g.Inputs.Set("b", types.Input{ValueType: types.Number})
	g.Intermediates.Set("i", types.ComputeNode{ValueType: "MyModel", Dependencies: []string{"a"}})
	g.Intermediates.Set("j", types.ComputeNode{ValueType: "MyModel", Dependencies: []string{"b"}})
	g.Outputs.Set("r", types.ComputeNode{ValueType: "MyModel", Dependencies: []string{"i", "j"}})
	return g
}

const builtInInterfaces = `export interface InputNodes {
  a: number
  b: number
}

export interface IntermediateNodes {
  i: number
  j: number
}

export interface OutputNodes {
  r: number
}
`

const customTypeInterfaces = `import { MyModel } from '../models'

export interface InputNodes {
  a: number
  b: number
}

export interface IntermediateNodes {
  i: MyModel
  j: MyModel
}

export interface OutputNodes {
  r: MyModel
}
`

func TestGenerateBuiltInTypes(t *testing.T) {
	got := GenerateComputeNodeInterfaces(builtInGraph(), "")
	if diff := cmp.Diff(builtInInterfaces, got); diff != "" {
		t.Fatalf("unexpected output (-want +got):\n%s", diff)
	}
}

func TestGenerateCustomTypeWithImports(t *testing.T) {
	got := GenerateComputeNodeInterfaces(customTypeGraph(), "import { MyModel } from '../models'")
	if diff := cmp.Diff(customTypeInterfaces, got); diff != "" {
		t.Fatalf("unexpected output (-want +got):\n%s", diff)
	}
}

func TestGenerateImportsArePrependedVerbatim(t *testing.T) {
	imports := "import { A } from './a'\nimport { B } from './b'\n"
	got := GenerateComputeNodeInterfaces(builtInGraph(), imports)
	want := imports + "\n\n" + builtInInterfaces
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected output (-want +got):\n%s", diff)
	}
}

func TestGenerateWithoutImportsStartsWithInputs(t *testing.T) {
	got := GenerateComputeNodeInterfaces(builtInGraph(), "")
	if !strings.HasPrefix(got, "export interface InputNodes {") {
		t.Fatalf("expected output to begin with the inputs declaration, got %q", got[:20])
	}
}

func TestGenerateEmptyGraph(t *testing.T) {
	want := "export interface InputNodes {\n  \n}\n\nexport interface IntermediateNodes {\n  \n}\n\nexport interface OutputNodes {\n  \n}\n"
	if got := GenerateComputeNodeInterfaces(types.NewDependencyGraph(), ""); got != want {
		t.Fatalf("unexpected output for empty graph:\n%q", got)
	}
	if got := GenerateComputeNodeInterfaces(nil, ""); got != want {
		t.Fatalf("nil graph should render like an empty graph, got %q", got)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	g := customTypeGraph()
	first := GenerateComputeNodeInterfaces(g, "import x")
	for i := 0; i < 10; i++ {
		if got := GenerateComputeNodeInterfaces(g, "import x"); got != first {
			t.Fatalf("run %d differs from first run", i)
		}
	}
}

func TestGenerateFollowsInsertionOrderAndFixedSectionOrder(t *testing.T) {
	g := types.NewDependencyGraph()
	g.Outputs.Set("zeta", types.ComputeNode{ValueType: types.String})
	g.Outputs.Set("alpha", types.ComputeNode{ValueType: types.Boolean})
	g.Inputs.Set("y", types.Input{ValueType: types.Number})
	g.Inputs.Set("x", types.Input{ValueType: types.Number})

	want := "export interface InputNodes {\n  y: number\n  x: number\n}\n\n" +
		"export interface IntermediateNodes {\n  \n}\n\n" +
		"export interface OutputNodes {\n  zeta: string\n  alpha: boolean\n}\n"
	if diff := cmp.Diff(want, GenerateComputeNodeInterfaces(g, "")); diff != "" {
		t.Fatalf("unexpected output (-want +got):\n%s", diff)
	}
}

func TestGenerateIgnoresDanglingDependencies(t *testing.T) {
	g := types.NewDependencyGraph()
	g.Outputs.Set("r", types.ComputeNode{ValueType: types.Number, Dependencies: []string{"missing", "r"}})

	got := GenerateComputeNodeInterfaces(g, "")
	if !strings.Contains(got, "  r: number\n") {
		t.Fatalf("expected output field for r, got %q", got)
	}
}
