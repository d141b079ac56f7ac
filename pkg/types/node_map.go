package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ErrDuplicateKey is returned when a document repeats a node name inside one
// mapping.
var ErrDuplicateKey = errors.New("duplicate key")

// ErrNotMapping is returned when a node section is not an object of nodes.
var ErrNotMapping = errors.New("expected an object of nodes")

// Entry is one named node of a NodeMap.
type Entry[T any] struct {
	Name string
	Node T
}

// NodeMap is a string-keyed mapping that remembers insertion order. Field
// order of generated declarations follows it, so decoding keeps the order
// keys appear in the source document. The zero value is an empty map.
type NodeMap[T any] struct {
	entries []Entry[T]
	index   map[string]int
}

// Len returns the number of entries.
func (m *NodeMap[T]) Len() int {
	return len(m.entries)
}

// Get returns the node stored under name.
func (m *NodeMap[T]) Get(name string) (T, bool) {
	if i, ok := m.index[name]; ok {
		return m.entries[i].Node, true
	}
	var zero T
	return zero, false
}

// Has reports whether name is present.
func (m *NodeMap[T]) Has(name string) bool {
	_, ok := m.index[name]
	return ok
}

// Set appends name, or replaces the node in place when name already exists.
func (m *NodeMap[T]) Set(name string, node T) {
	if m.index == nil {
		m.index = make(map[string]int)
	}
	if i, ok := m.index[name]; ok {
		m.entries[i].Node = node
		return
	}
	m.index[name] = len(m.entries)
	m.entries = append(m.entries, Entry[T]{Name: name, Node: node})
}

// Entries returns a copy of the entries in insertion order.
func (m *NodeMap[T]) Entries() []Entry[T] {
	out := make([]Entry[T], len(m.entries))
	copy(out, m.entries)
	return out
}

// Names returns the keys in insertion order.
func (m *NodeMap[T]) Names() []string {
	names := make([]string, len(m.entries))
	for i, e := range m.entries {
		names[i] = e.Name
	}
	return names
}

func (m *NodeMap[T]) add(name string, node T) error {
	if m.Has(name) {
		return fmt.Errorf("%w %q", ErrDuplicateKey, name)
	}
	m.Set(name, node)
	return nil
}

// MarshalJSON writes the entries as a JSON object in insertion order.
func (m NodeMap[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(e.Node)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, keeping the order of its keys.
func (m *NodeMap[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w, got %s", ErrNotMapping, describeToken(tok))
	}

	var out NodeMap[T]
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)

		var node T
		if err := dec.Decode(&node); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if err := out.add(name, node); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = out
	return nil
}

// MarshalYAML emits a mapping node in insertion order.
func (m NodeMap[T]) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range m.entries {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Name}
		val := &yaml.Node{}
		if err := val.Encode(e.Node); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name, err)
		}
		node.Content = append(node.Content, key, val)
	}
	return node, nil
}

// UnmarshalYAML reads a YAML mapping, keeping the order of its keys.
func (m *NodeMap[T]) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && value.ShortTag() == "!!null" {
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: %w, got %s", value.Line, ErrNotMapping, describeKind(value))
	}

	var out NodeMap[T]
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode, valNode := value.Content[i], value.Content[i+1]
		var node T
		if err := valNode.Decode(&node); err != nil {
			return fmt.Errorf("%s: %w", keyNode.Value, err)
		}
		if err := out.add(keyNode.Value, node); err != nil {
			return fmt.Errorf("line %d: %w", keyNode.Line, err)
		}
	}

	*m = out
	return nil
}

func describeToken(tok json.Token) string {
	switch tok.(type) {
	case nil:
		return "null"
	case json.Delim:
		return "array"
	case string:
		return "string"
	case float64, json.Number:
		return "number"
	case bool:
		return "bool"
	default:
		return fmt.Sprintf("%T", tok)
	}
}

func describeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "scalar " + n.ShortTag()
	}
}
