package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/chief-builder/mcp-reference-server/internal/validation"
	"github.com/google/jsonschema-go/jsonschema"
)

// Handler is a tool's implementation. It receives already-decoded
// arguments and a progress reporter bound to the call's progress token
// (nil when the caller supplied none).
type Handler func(ctx context.Context, arguments json.RawMessage, progress *ProgressEmitter) (*ToolResult, error)

// Annotations are hints about tool behavior, never contracts (spec.md §3).
type Annotations struct {
	ReadOnlyHint    bool `json:"readOnlyHint,omitempty"`
	DestructiveHint bool `json:"destructiveHint,omitempty"`
	IdempotentHint  bool `json:"idempotentHint,omitempty"`
	OpenWorldHint   bool `json:"openWorldHint,omitempty"`
}

// Tool is a named, schema-described callable. Immutable once registered.
type Tool struct {
	Name        string             `json:"name"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
	Annotations *Annotations       `json:"annotations,omitempty"`

	Handler Handler `json:"-"`

	resolved *jsonschema.Resolved
}

// Registry is an insertion-ordered map of tool name to Tool (spec.md §4.4).
// Write-once at startup, read-mostly thereafter (spec.md §5).
type Registry struct {
	mu    sync.RWMutex
	tools map[string]*Tool
	order []string
}

// ErrDuplicateTool reports a second registration attempt for the same name.
type ErrDuplicateTool struct{ Name string }

func (e *ErrDuplicateTool) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]*Tool)}
}

// Register adds tool to the registry, rejecting duplicate names and
// resolving its input schema up front so tools/call never pays that cost.
func (r *Registry) Register(tool *Tool) error {
	if err := validation.ValidateToolName(tool.Name); err != nil {
		return fmt.Errorf("register tool: %w", err)
	}
	if tool.InputSchema == nil {
		tool.InputSchema = &jsonschema.Schema{Type: "object"}
	}
	resolved, err := tool.InputSchema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("tool %q: resolve input schema: %w", tool.Name, err)
	}
	tool.resolved = resolved

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name]; exists {
		return &ErrDuplicateTool{Name: tool.Name}
	}
	r.tools[tool.Name] = tool
	r.order = append(r.order, tool.Name)
	return nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (*Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns all tools in registration order.
func (r *Registry) List() []*Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}
