// Package codegen turns a dependency graph into structural type declarations
// for its three node categories.
package codegen

import (
	"strings"

	"github.com/metabolize/werkit/pkg/types"
)

const (
	InputNodesName        = "InputNodes"
	IntermediateNodesName = "IntermediateNodes"
	OutputNodesName       = "OutputNodes"
)

type field struct {
	name      string
	valueType types.ValueType
}

// GenerateComputeNodeInterfaces emits the InputNodes, IntermediateNodes and
// OutputNodes declarations, one field per node in insertion order. A
// non-empty imports block is copied verbatim above them, followed by a blank
// line. Dependencies are never consulted, so unvalidated graphs are fine.
func GenerateComputeNodeInterfaces(g *types.DependencyGraph, imports string) string {
	if g == nil {
		g = types.NewDependencyGraph()
	}

	declarations := []string{
		declaration(InputNodesName, fields(&g.Inputs, func(n types.Input) types.ValueType { return n.ValueType })),
		declaration(IntermediateNodesName, fields(&g.Intermediates, computeNodeType)),
		declaration(OutputNodesName, fields(&g.Outputs, computeNodeType)),
	}
	interfaces := strings.Join(declarations, "\n")

	if imports == "" {
		return interfaces
	}
	return imports + "\n\n" + interfaces
}

func computeNodeType(n types.ComputeNode) types.ValueType {
	return n.ValueType
}

func fields[T any](m *types.NodeMap[T], valueType func(T) types.ValueType) []field {
	entries := m.Entries()
	out := make([]field, len(entries))
	for i, e := range entries {
		out[i] = field{name: e.Name, valueType: valueType(e.Node)}
	}
	return out
}

func declaration(name string, fields []field) string {
	var b strings.Builder
	b.WriteString("export interface ")
	b.WriteString(name)
	b.WriteString(" {\n")
	// An empty section keeps its indented blank line.
	if len(fields) == 0 {
		b.WriteString("  \n")
	}
	for _, f := range fields {
		b.WriteString("  ")
		b.WriteString(f.name)
		b.WriteString(": ")
		b.WriteString(string(f.valueType))
		b.WriteString("\n")
	}
	b.WriteString("}\n")
	return b.String()
}
