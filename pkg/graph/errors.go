package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrParse indicates malformed JSON or YAML.
	ErrParse = errors.New("parse error")

	// ErrSchema indicates missing fields, wrong types or unknown fields.
	ErrSchema = errors.New("schema error")

	// ErrStructural indicates shared names, dangling or self dependencies, cycles.
	ErrStructural = errors.New("structural error")

	// ErrSemantic indicates an unsupported version or an unknown value type.
	ErrSemantic = errors.New("semantic error")
)

// Structural error kinds.
const (
	KindDuplicateName      = "duplicate_name"
	KindDanglingDependency = "dangling_dependency"
	KindSelfReference      = "self_reference"
	KindCycle              = "cycle"
)

// ParseError wraps a decoder failure.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Msg == "" {
		return ErrParse.Error()
	}
	return fmt.Sprintf("%s: %s", ErrParse, e.Msg)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}

// SchemaError reports a shape problem, with the offending field path when
// there is one.
type SchemaError struct {
	Field string
	Msg   string
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", ErrSchema, e.Field, e.Msg)
	}
	if e.Msg == "" {
		return ErrSchema.Error()
	}
	return fmt.Sprintf("%s: %s", ErrSchema, e.Msg)
}

func (e *SchemaError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrSchema}
	}
	return []error{ErrSchema, e.Err}
}

// StructuralError reports a dependency problem found by Validate.
type StructuralError struct {
	Kind string
	Node string
	Msg  string
}

func (e *StructuralError) Error() string {
	if e.Msg == "" {
		return ErrStructural.Error()
	}
	return fmt.Sprintf("%s: %s", ErrStructural, e.Msg)
}

func (e *StructuralError) Unwrap() error { return ErrStructural }

// SemanticError reports a document that is well formed but not usable.
type SemanticError struct {
	Msg string
}

func (e *SemanticError) Error() string {
	if e.Msg == "" {
		return ErrSemantic.Error()
	}
	return fmt.Sprintf("%s: %s", ErrSemantic, e.Msg)
}

func (e *SemanticError) Unwrap() error { return ErrSemantic }
