package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestNodeMapJSONKeepsDocumentOrder(t *testing.T) {
	var m NodeMap[Input]
	err := json.Unmarshal([]byte(`{"z": {"valueType": "number"}, "a": {"valueType": "string"}, "m": {"valueType": "boolean"}}`), &m)
	require.NoError(t, err)

	assert.Equal(t, []string{"z", "a", "m"}, m.Names())
	node, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, String, node.ValueType)
}

func TestNodeMapJSONRejectsDuplicateKey(t *testing.T) {
	var m NodeMap[Input]
	err := json.Unmarshal([]byte(`{"a": {"valueType": "number"}, "a": {"valueType": "string"}}`), &m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate key "a"`)
}

func TestNodeMapJSONRejectsNonObject(t *testing.T) {
	var m NodeMap[Input]
	err := json.Unmarshal([]byte(`["a"]`), &m)
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrNotMapping)
	assert.Equal(t, "expected an object of nodes, got array", err.Error())
}

func TestNodeMapYAMLRejectsNonMapping(t *testing.T) {
	var m NodeMap[Input]
	err := yaml.Unmarshal([]byte("[a]\n"), &m)
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrNotMapping)
	assert.Contains(t, err.Error(), "got sequence")
}

func TestNodeMapJSONMarshalPreservesOrder(t *testing.T) {
	var m NodeMap[ComputeNode]
	m.Set("r", ComputeNode{ValueType: Number, Dependencies: []string{"i", "j"}})
	m.Set("b", ComputeNode{ValueType: "MyModel", Dependencies: []string{}})

	out, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"r":{"valueType":"number","dependencies":["i","j"]},"b":{"valueType":"MyModel","dependencies":[]}}`, string(out))
}

func TestNodeMapYAMLKeepsDocumentOrder(t *testing.T) {
	doc := `
second:
  valueType: number
  dependencies: [first]
first:
  valueType: MyModel
  dependencies: []
`
	var m NodeMap[ComputeNode]
	require.NoError(t, yaml.Unmarshal([]byte(doc), &m))

	assert.Equal(t, []string{"second", "first"}, m.Names())
	node, ok := m.Get("second")
	require.True(t, ok)
	assert.Equal(t, []string{"first"}, node.Dependencies)
}

func TestNodeMapYAMLRoundTripOrder(t *testing.T) {
	var m NodeMap[Input]
	m.Set("b", Input{ValueType: Number})
	m.Set("a", Input{ValueType: Boolean})

	out, err := yaml.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, "b:\n    valueType: number\na:\n    valueType: boolean\n", string(out))

	var back NodeMap[Input]
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, m.Entries(), back.Entries())
}

func TestNodeMapSetReplacesInPlace(t *testing.T) {
	var m NodeMap[Input]
	m.Set("a", Input{ValueType: Number})
	m.Set("b", Input{ValueType: Number})
	m.Set("a", Input{ValueType: String})

	assert.Equal(t, []string{"a", "b"}, m.Names())
	node, _ := m.Get("a")
	assert.Equal(t, String, node.ValueType)
	assert.Equal(t, 2, m.Len())
}

func TestDependencyGraphNodeNames(t *testing.T) {
	g := NewDependencyGraph()
	g.Inputs.Set("a", Input{ValueType: Number})
	g.Outputs.Set("r", ComputeNode{ValueType: Number, Dependencies: []string{"i"}})
	g.Intermediates.Set("i", ComputeNode{ValueType: Number, Dependencies: []string{"a"}})

	assert.Equal(t, []string{"a", "i", "r"}, g.NodeNames())
	assert.Equal(t, SchemaVersion, g.SchemaVersion)
}

func TestValueTypeIsBuiltIn(t *testing.T) {
	for _, v := range BuiltInValueTypes() {
		assert.True(t, v.IsBuiltIn(), "%s", v)
	}
	assert.False(t, ValueType("MyModel").IsBuiltIn())
	assert.False(t, ValueType("Number").IsBuiltIn())
}
