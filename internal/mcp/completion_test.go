package mcp

import "testing"

func TestCompletionRegistry_SimpleProviderFiltersByPrefix(t *testing.T) {
	c := NewCompletionRegistry()
	c.RegisterSimple("roll_dice", "notation", func(prefix string) []string {
		return []string{"1d6", "1d8", "2d6+1", "3d6"}
	})

	result := c.Complete(CompletionParams{
		Ref:      CompletionRef{Type: "ref/tool", Name: "roll_dice"},
		Argument: CompletionArgument{Name: "notation", Value: "1d"},
	})
	if len(result.Values) != 2 {
		t.Fatalf("Values = %v, want 2 matches for prefix 1d", result.Values)
	}
}

func TestCompletionRegistry_SimpleProviderCapsAtTwenty(t *testing.T) {
	c := NewCompletionRegistry()
	candidates := make([]string, 30)
	for i := range candidates {
		candidates[i] = "v"
	}
	c.RegisterSimple("tool", "arg", func(prefix string) []string { return candidates })

	result := c.Complete(CompletionParams{
		Ref:      CompletionRef{Type: "ref/tool", Name: "tool"},
		Argument: CompletionArgument{Name: "arg"},
	})
	if len(result.Values) != CompletionCap {
		t.Fatalf("len(Values) = %d, want %d", len(result.Values), CompletionCap)
	}
	if result.Total == nil || *result.Total != 30 {
		t.Fatalf("Total = %v, want 30", result.Total)
	}
	if result.HasMore == nil || !*result.HasMore {
		t.Fatalf("HasMore = %v, want true", result.HasMore)
	}
}

func TestCompletionRegistry_FullProviderReturnedUnmodified(t *testing.T) {
	c := NewCompletionRegistry()
	want := CompletionResult{Values: []string{"only-one"}}
	c.RegisterFull("ref/resource", "templates", func(arg CompletionArgument) CompletionResult {
		return want
	})

	result := c.Complete(CompletionParams{
		Ref: CompletionRef{Type: "ref/resource", Name: "templates"},
	})
	if len(result.Values) != 1 || result.Values[0] != "only-one" {
		t.Fatalf("result = %+v, want unmodified provider result", result)
	}
}

func TestCompletionRegistry_NoProviderReturnsEmptyResult(t *testing.T) {
	c := NewCompletionRegistry()
	result := c.Complete(CompletionParams{
		Ref: CompletionRef{Type: "ref/tool", Name: "unregistered"},
	})
	if len(result.Values) != 0 {
		t.Errorf("Values = %v, want empty", result.Values)
	}
}

func TestCompletionRegistry_SimpleProviderPreferredOverFull(t *testing.T) {
	c := NewCompletionRegistry()
	c.RegisterSimple("tool", "arg", func(prefix string) []string { return []string{"simple"} })
	c.RegisterFull("ref/tool", "tool", func(arg CompletionArgument) CompletionResult {
		return CompletionResult{Values: []string{"full"}}
	})

	result := c.Complete(CompletionParams{
		Ref:      CompletionRef{Type: "ref/tool", Name: "tool"},
		Argument: CompletionArgument{Name: "arg"},
	})
	if len(result.Values) != 1 || result.Values[0] != "simple" {
		t.Fatalf("result = %+v, want simple provider to win", result)
	}
}
