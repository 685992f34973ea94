package mcp

import "github.com/chief-builder/mcp-reference-server/internal/progress"

// ProgressEmitter is the throttled progress reporter a tool handler uses to
// emit notifications/progress (spec.md §4.5). Handlers that don't care
// about progress can ignore a nil *ProgressEmitter.
type ProgressEmitter = progress.Reporter
