package llm

import "testing"

func TestExtractJSONArrayPlain(t *testing.T) {
	items, err := ExtractJSONArray(`["Tang dynasty", "Song dynasty"]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || items[0] != "Tang dynasty" {
		t.Errorf("got %v", items)
	}
}

func TestExtractJSONArrayFenced(t *testing.T) {
	raw := "Here you go:\n```json\n[\"a\", \"b\", \"c\"]\n```\nHope that helps."
	items, err := ExtractJSONArray(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 3 {
		t.Errorf("expected 3 items, got %v", items)
	}
}

func TestExtractJSONArrayDropsBlanks(t *testing.T) {
	items, err := ExtractJSONArray(`["a", "  ", ""]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0] != "a" {
		t.Errorf("got %v", items)
	}
}

func TestExtractJSONArrayNoArray(t *testing.T) {
	if _, err := ExtractJSONArray("sorry, I cannot help with that"); err == nil {
		t.Error("expected error for output without an array")
	}
}

func TestExtractJSONObjectFenced(t *testing.T) {
	raw := "```json\n{\"content\": \"Li Yuan founded it.\"}\n```"
	var out struct {
		Content string `json:"content"`
	}
	if err := ExtractJSONObject(raw, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Content != "Li Yuan founded it." {
		t.Errorf("got %q", out.Content)
	}
}

func TestExtractJSONObjectMissing(t *testing.T) {
	var out map[string]any
	if err := ExtractJSONObject("no object here", &out); err == nil {
		t.Error("expected error for output without an object")
	}
}
