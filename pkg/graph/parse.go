package graph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/metabolize/werkit/pkg/types"
	"gopkg.in/yaml.v3"
)

// Format selects the document decoder.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// FormatForPath picks YAML for .yaml and .yml files and JSON otherwise.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// document mirrors types.DependencyGraph with pointers so that absent
// fields can be told apart from empty ones.
type document struct {
	SchemaVersion *int                              `json:"schemaVersion" yaml:"schemaVersion"`
	Inputs        *types.NodeMap[types.Input]       `json:"inputs" yaml:"inputs"`
	Intermediates *types.NodeMap[types.ComputeNode] `json:"intermediates" yaml:"intermediates"`
	Outputs       *types.NodeMap[types.ComputeNode] `json:"outputs" yaml:"outputs"`
}

// Parse decodes a dependency graph. It returns ParseError for malformed
// input, SchemaError for missing or mistyped fields and SemanticError for a
// schemaVersion other than 1. No dependency checks are made; see Validate.
func Parse(r io.Reader, format Format) (*types.DependencyGraph, error) {
	var (
		doc document
		err error
	)
	switch format {
	case FormatYAML:
		err = decodeYAML(r, &doc)
	default:
		err = decodeJSON(r, &doc)
	}
	if err != nil {
		return nil, err
	}

	if err := validateRequired(&doc); err != nil {
		return nil, err
	}
	if *doc.SchemaVersion != types.SchemaVersion {
		return nil, &SemanticError{
			Msg: fmt.Sprintf("unsupported schemaVersion %d, expected %d", *doc.SchemaVersion, types.SchemaVersion),
		}
	}

	return &types.DependencyGraph{
		SchemaVersion: *doc.SchemaVersion,
		Inputs:        *doc.Inputs,
		Intermediates: *doc.Intermediates,
		Outputs:       *doc.Outputs,
	}, nil
}

// ParseBytes is Parse over an in-memory document.
func ParseBytes(data []byte, format Format) (*types.DependencyGraph, error) {
	return Parse(bytes.NewReader(data), format)
}

func decodeJSON(r io.Reader, doc *document) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(doc); err != nil {
		return classifyJSONError(err)
	}
	if dec.More() {
		return &ParseError{Msg: "unexpected data after the graph document"}
	}
	return nil
}

func classifyJSONError(err error) error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	switch {
	case errors.Is(err, io.EOF):
		return &ParseError{Msg: "empty document", Err: err}
	case errors.Is(err, io.ErrUnexpectedEOF):
		return &ParseError{Msg: "unexpected end of document", Err: err}
	case errors.As(err, &syntaxErr):
		return &ParseError{Msg: fmt.Sprintf("malformed JSON at offset %d: %v", syntaxErr.Offset, syntaxErr), Err: err}
	case errors.As(err, &typeErr):
		return &SchemaError{Field: typeErr.Field, Msg: fmt.Sprintf("invalid field type: %v", err), Err: err}
	case errors.Is(err, types.ErrDuplicateKey), errors.Is(err, types.ErrNotMapping):
		return &SchemaError{Msg: err.Error(), Err: err}
	case strings.HasPrefix(err.Error(), "json: unknown field"):
		return &SchemaError{Msg: strings.TrimPrefix(err.Error(), "json: "), Err: err}
	default:
		return &ParseError{Msg: err.Error(), Err: err}
	}
}

func decodeYAML(r io.Reader, doc *document) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(doc); err != nil {
		var typeErr *yaml.TypeError
		switch {
		case errors.Is(err, io.EOF):
			return &ParseError{Msg: "empty document", Err: err}
		case errors.As(err, &typeErr):
			return &SchemaError{Msg: strings.Join(typeErr.Errors, "; "), Err: err}
		case errors.Is(err, types.ErrDuplicateKey), errors.Is(err, types.ErrNotMapping):
			return &SchemaError{Msg: err.Error(), Err: err}
		default:
			return &ParseError{Msg: err.Error(), Err: err}
		}
	}
	return nil
}

func validateRequired(doc *document) error {
	if doc.SchemaVersion == nil {
		return &SchemaError{Field: "schemaVersion", Msg: "required field is missing"}
	}
	if doc.Inputs == nil {
		return &SchemaError{Field: "inputs", Msg: "required field is missing"}
	}
	if doc.Intermediates == nil {
		return &SchemaError{Field: "intermediates", Msg: "required field is missing"}
	}
	if doc.Outputs == nil {
		return &SchemaError{Field: "outputs", Msg: "required field is missing"}
	}

	for _, e := range doc.Inputs.Entries() {
		if e.Node.ValueType == "" {
			return &SchemaError{Field: "inputs." + e.Name + ".valueType", Msg: "required field is missing"}
		}
	}
	if err := requireComputeNodes("intermediates", doc.Intermediates); err != nil {
		return err
	}
	return requireComputeNodes("outputs", doc.Outputs)
}

func requireComputeNodes(section string, nodes *types.NodeMap[types.ComputeNode]) error {
	for _, e := range nodes.Entries() {
		if e.Node.ValueType == "" {
			return &SchemaError{Field: section + "." + e.Name + ".valueType", Msg: "required field is missing"}
		}
		if e.Node.Dependencies == nil {
			return &SchemaError{Field: section + "." + e.Name + ".dependencies", Msg: "required field is missing"}
		}
	}
	return nil
}
