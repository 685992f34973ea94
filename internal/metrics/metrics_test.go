package metrics

import "testing"

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/mcp":         "/mcp",
		"/api/chat":    "/api/chat",
		"/api/cancel":  "/api/cancel",
		"/api/health":  "/api/health",
		"/metrics":     "/metrics",
		"/mcp/foo/bar": "other",
		"/unknown":     "other",
	}
	for path, want := range cases {
		if got := normalizePath(path); got != want {
			t.Errorf("normalizePath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestRecordRequest_DoesNotPanic(t *testing.T) {
	RecordRequest("tools/list", "success")
	RecordToolCall("roll_dice", "error")
	RecordSSEEvent("sess-1")
	SetSessionsActive(3)
}
