package types

// SchemaVersion is the only dependency graph schema version that exists.
const SchemaVersion = 1

// ValueType labels the kind of value a node holds. The built-in names are
// listed below; applications add their own (for example "MyModel") and the
// label is emitted verbatim wherever a type annotation is generated.
type ValueType string

const (
	Boolean ValueType = "boolean"
	Number  ValueType = "number"
	String  ValueType = "string"
)

// BuiltInValueTypes returns the built-in value types in declaration order.
func BuiltInValueTypes() []ValueType {
	return []ValueType{Boolean, Number, String}
}

// IsBuiltIn reports whether v is one of the built-in value types.
func (v ValueType) IsBuiltIn() bool {
	switch v {
	case Boolean, Number, String:
		return true
	default:
		return false
	}
}

// Input is a graph leaf. It has no dependencies.
type Input struct {
	ValueType ValueType `json:"valueType" yaml:"valueType"`
}

// ComputeNode describes both intermediates and outputs. Dependencies name
// inputs or intermediates; they are carried but never dereferenced here.
type ComputeNode struct {
	ValueType    ValueType `json:"valueType" yaml:"valueType"`
	Dependencies []string  `json:"dependencies" yaml:"dependencies"`
}

// DependencyGraph is the serialized description of a compute graph.
type DependencyGraph struct {
	SchemaVersion int                  `json:"schemaVersion" yaml:"schemaVersion"`
	Inputs        NodeMap[Input]       `json:"inputs" yaml:"inputs"`
	Intermediates NodeMap[ComputeNode] `json:"intermediates" yaml:"intermediates"`
	Outputs       NodeMap[ComputeNode] `json:"outputs" yaml:"outputs"`
}

// NewDependencyGraph returns an empty graph at the current schema version.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{SchemaVersion: SchemaVersion}
}

// NodeNames returns every node name: inputs, then intermediates, then
// outputs, each in insertion order.
func (g *DependencyGraph) NodeNames() []string {
	if g == nil {
		return nil
	}
	names := make([]string, 0, g.Inputs.Len()+g.Intermediates.Len()+g.Outputs.Len())
	names = append(names, g.Inputs.Names()...)
	names = append(names, g.Intermediates.Names()...)
	names = append(names, g.Outputs.Names()...)
	return names
}
