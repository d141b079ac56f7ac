package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/metabolize/werkit/pkg/types"
)

// ValidateOptions controls the optional checks of Validate.
type ValidateOptions struct {
	// CustomTypes are the application-defined value types, in addition to
	// the built-in ones.
	CustomTypes []types.ValueType
	// CheckValueTypes rejects value types that are neither built in nor
	// listed in CustomTypes.
	CheckValueTypes bool
}

const (
	sectionInputs        = "inputs"
	sectionIntermediates = "intermediates"
	sectionOutputs       = "outputs"
)

// Validate checks the parts of a graph that the generator ignores. It
// reports the first problem found, in this order: repeated custom type
// names, unknown value types, names declared in more than one mapping,
// self or dangling dependencies, cycles between intermediates.
func Validate(g *types.DependencyGraph, opts ValidateOptions) error {
	if g == nil {
		return &SchemaError{Msg: "graph is nil"}
	}

	if dups := findDuplicates(opts.CustomTypes); len(dups) > 0 {
		return &SemanticError{Msg: "duplicate custom type names found: " + strings.Join(dups, ", ")}
	}
	if opts.CheckValueTypes {
		if err := checkValueTypes(g, opts.CustomTypes); err != nil {
			return err
		}
	}

	sections, err := indexSections(g)
	if err != nil {
		return err
	}
	if err := checkDependencies(sectionIntermediates, &g.Intermediates, sections); err != nil {
		return err
	}
	if err := checkDependencies(sectionOutputs, &g.Outputs, sections); err != nil {
		return err
	}
	return checkCycles(&g.Intermediates)
}

func findDuplicates(items []types.ValueType) []string {
	seen := make(map[types.ValueType]int, len(items))
	for _, item := range items {
		seen[item]++
	}
	var dups []string
	for item, n := range seen {
		if n > 1 {
			dups = append(dups, string(item))
		}
	}
	sort.Strings(dups)
	return dups
}

func checkValueTypes(g *types.DependencyGraph, custom []types.ValueType) error {
	allowed := make(map[types.ValueType]bool, len(custom)+3)
	for _, v := range types.BuiltInValueTypes() {
		allowed[v] = true
	}
	for _, v := range custom {
		allowed[v] = true
	}

	check := func(section, name string, v types.ValueType) error {
		if allowed[v] {
			return nil
		}
		return &SemanticError{Msg: fmt.Sprintf("%s.%s: unknown value type %q", section, name, v)}
	}

	for _, e := range g.Inputs.Entries() {
		if err := check(sectionInputs, e.Name, e.Node.ValueType); err != nil {
			return err
		}
	}
	for _, e := range g.Intermediates.Entries() {
		if err := check(sectionIntermediates, e.Name, e.Node.ValueType); err != nil {
			return err
		}
	}
	for _, e := range g.Outputs.Entries() {
		if err := check(sectionOutputs, e.Name, e.Node.ValueType); err != nil {
			return err
		}
	}
	return nil
}

// indexSections maps every node name to the mapping that declares it.
func indexSections(g *types.DependencyGraph) (map[string]string, error) {
	sections := make(map[string]string, len(g.NodeNames()))
	add := func(section string, names []string) error {
		for _, name := range names {
			if prev, ok := sections[name]; ok {
				return &StructuralError{
					Kind: KindDuplicateName,
					Node: name,
					Msg:  fmt.Sprintf("node %q is declared in both %s and %s", name, prev, section),
				}
			}
			sections[name] = section
		}
		return nil
	}

	if err := add(sectionInputs, g.Inputs.Names()); err != nil {
		return nil, err
	}
	if err := add(sectionIntermediates, g.Intermediates.Names()); err != nil {
		return nil, err
	}
	if err := add(sectionOutputs, g.Outputs.Names()); err != nil {
		return nil, err
	}
	return sections, nil
}

// checkDependencies requires every dependency to name an input or an
// intermediate other than the node itself.
func checkDependencies(section string, nodes *types.NodeMap[types.ComputeNode], sections map[string]string) error {
	for _, e := range nodes.Entries() {
		for _, dep := range e.Node.Dependencies {
			if dep == e.Name {
				return &StructuralError{
					Kind: KindSelfReference,
					Node: e.Name,
					Msg:  fmt.Sprintf("%s.%s depends on itself", section, e.Name),
				}
			}
			switch sections[dep] {
			case sectionInputs, sectionIntermediates:
			case sectionOutputs:
				return &StructuralError{
					Kind: KindDanglingDependency,
					Node: e.Name,
					Msg:  fmt.Sprintf("%s.%s depends on output %q", section, e.Name, dep),
				}
			default:
				return &StructuralError{
					Kind: KindDanglingDependency,
					Node: e.Name,
					Msg:  fmt.Sprintf("%s.%s depends on unknown node %q", section, e.Name, dep),
				}
			}
		}
	}
	return nil
}

// checkCycles runs a coloured DFS over intermediate-to-intermediate edges.
// Traversal is sorted so the reported cycle is stable.
func checkCycles(intermediates *types.NodeMap[types.ComputeNode]) error {
	adjacency := make(map[string][]string, intermediates.Len())
	for _, e := range intermediates.Entries() {
		var next []string
		for _, dep := range e.Node.Dependencies {
			if intermediates.Has(dep) {
				next = append(next, dep)
			}
		}
		sort.Strings(next)
		adjacency[e.Name] = next
	}

	const (
		white = iota
		grey
		black
	)
	color := make(map[string]int, len(adjacency))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		color[name] = grey
		path = append(path, name)
		for _, next := range adjacency[name] {
			switch color[next] {
			case grey:
				start := 0
				for i, n := range path {
					if n == next {
						start = i
						break
					}
				}
				cycle := append(append([]string{}, path[start:]...), next)
				return &StructuralError{
					Kind: KindCycle,
					Node: next,
					Msg:  "cycle detected: " + strings.Join(cycle, " -> "),
				}
			case white:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		color[name] = black
		return nil
	}

	names := intermediates.Names()
	sort.Strings(names)
	for _, name := range names {
		if color[name] == white {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}
