package mcp

import (
	"strings"
	"sync"
)

// CompletionCap bounds the number of candidates returned per request
// (spec.md §4.6).
const CompletionCap = 20

// CompletionRef identifies what is being completed: a tool argument
// (ref.type == "ref/tool") or an arbitrary (refType, name) pair registered
// with a full provider.
type CompletionRef struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// CompletionArgument is the argument being completed and its current prefix.
type CompletionArgument struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CompletionParams is the decoded params of completion/complete.
type CompletionParams struct {
	Ref      CompletionRef      `json:"ref"`
	Argument CompletionArgument `json:"argument"`
}

// CompletionResult is the response payload for completion/complete.
type CompletionResult struct {
	Values  []string `json:"values"`
	Total   *int     `json:"total,omitempty"`
	HasMore *bool    `json:"hasMore,omitempty"`
}

// SimpleProvider returns candidate strings for a given prefix.
type SimpleProvider func(prefix string) []string

// FullProvider returns a complete CompletionResult, unmodified by the dispatcher.
type FullProvider func(argument CompletionArgument) CompletionResult

type simpleKey struct{ toolName, argumentName string }
type fullKey struct{ refType, name string }

// CompletionRegistry holds the two completion provider kinds spec.md §4.6
// describes, dispatched by completion/complete.
type CompletionRegistry struct {
	mu      sync.RWMutex
	simple  map[simpleKey]SimpleProvider
	full    map[fullKey]FullProvider
}

// NewCompletionRegistry creates an empty completion registry.
func NewCompletionRegistry() *CompletionRegistry {
	return &CompletionRegistry{
		simple: make(map[simpleKey]SimpleProvider),
		full:   make(map[fullKey]FullProvider),
	}
}

// RegisterSimple registers a prefix-filtered provider for (toolName, argumentName).
func (c *CompletionRegistry) RegisterSimple(toolName, argumentName string, provider SimpleProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.simple[simpleKey{toolName, argumentName}] = provider
}

// RegisterFull registers a provider for an arbitrary (refType, name) pair.
func (c *CompletionRegistry) RegisterFull(refType, name string, provider FullProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.full[fullKey{refType, name}] = provider
}

// Complete dispatches a completion/complete request per spec.md §4.6's
// three-step rule: simple provider (filtered + capped), else full
// provider (returned unmodified), else an empty result.
func (c *CompletionRegistry) Complete(params CompletionParams) CompletionResult {
	if params.Ref.Type == "ref/tool" {
		c.mu.RLock()
		provider, ok := c.simple[simpleKey{params.Ref.Name, params.Argument.Name}]
		c.mu.RUnlock()
		if ok {
			candidates := provider(params.Argument.Value)
			return capValues(filterByPrefix(candidates, params.Argument.Value))
		}
	}

	c.mu.RLock()
	full, ok := c.full[fullKey{params.Ref.Type, params.Ref.Name}]
	c.mu.RUnlock()
	if ok {
		return full(params.Argument)
	}

	return CompletionResult{Values: []string{}}
}

func filterByPrefix(candidates []string, prefix string) []string {
	prefix = strings.ToLower(prefix)
	out := make([]string, 0, len(candidates))
	for _, v := range candidates {
		if strings.HasPrefix(strings.ToLower(v), prefix) {
			out = append(out, v)
		}
	}
	return out
}

func capValues(values []string) CompletionResult {
	if len(values) <= CompletionCap {
		return CompletionResult{Values: values}
	}
	total := len(values)
	hasMore := true
	return CompletionResult{Values: values[:CompletionCap], Total: &total, HasMore: &hasMore}
}
