package mcp

// ContentPart is one piece of a ToolResult's content list. Type is
// typically "text"; other types ("image", ...) carry their payload in
// fields this server never populates since the conformance fixtures are
// text-only.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ToolResult is the envelope returned by tools/call. IsError marks a
// tool-level failure (reported to the model as data, not as a JSON-RPC
// error) per spec §4.4.
type ToolResult struct {
	Content []ContentPart `json:"content"`
	IsError bool          `json:"isError"`
}

// NewTextResult wraps text as a successful single-part ToolResult.
func NewTextResult(text string) *ToolResult {
	return &ToolResult{Content: []ContentPart{{Type: "text", Text: text}}}
}

// NewErrorResult wraps msg as a tool-level (isError:true) ToolResult.
func NewErrorResult(msg string) *ToolResult {
	return &ToolResult{IsError: true, Content: []ContentPart{{Type: "text", Text: msg}}}
}
