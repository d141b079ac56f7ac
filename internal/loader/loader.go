package loader

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/metabolize/werkit/pkg/graph"
	"github.com/metabolize/werkit/pkg/types"
)

// GraphValidator is the optional check run after a graph is decoded.
type GraphValidator interface {
	Validate(*types.DependencyGraph) error
}

// ValidatorFunc adapts a function to GraphValidator.
type ValidatorFunc func(*types.DependencyGraph) error

func (f ValidatorFunc) Validate(g *types.DependencyGraph) error { return f(g) }

// Loader reads dependency graphs and import headers from disk.
type Loader struct {
	validator GraphValidator
	logger    *slog.Logger
}

// NewLoader creates a Loader. validator may be nil, in which case graphs are
// only decoded.
func NewLoader(validator GraphValidator) *Loader {
	return &Loader{validator: validator}
}

func (l *Loader) SetLogger(logger *slog.Logger) {
	l.logger = logger
}

// LoadGraph decodes the graph document at path. Files ending in .yaml or
// .yml are read as YAML, everything else as JSON.
func (l *Loader) LoadGraph(path string) (*types.DependencyGraph, error) {
	g, err := l.parseGraph(path)
	if err != nil {
		return nil, fmt.Errorf("load dependency graph %s: %w", path, err)
	}

	if l.validator != nil {
		if err := l.validator.Validate(g); err != nil {
			return nil, fmt.Errorf("validate dependency graph %s: %w", path, err)
		}
	}

	l.logDebug("graph_loaded",
		"path", path,
		"inputs", g.Inputs.Len(),
		"intermediates", g.Intermediates.Len(),
		"outputs", g.Outputs.Len(),
	)
	return g, nil
}

// LoadImports returns the contents of the import header at path verbatim.
// An empty path means no header.
func (l *Loader) LoadImports(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read imports %s: %w", path, err)
	}
	l.logDebug("imports_loaded", "path", path, "bytes", len(raw))
	return string(raw), nil
}

func (l *Loader) parseGraph(path string) (*types.DependencyGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return graph.Parse(f, graph.FormatForPath(path))
}

func (l *Loader) logDebug(msg string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Debug(msg, args...)
}
