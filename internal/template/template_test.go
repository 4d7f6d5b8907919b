package template

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderVariables(t *testing.T) {
	tpl := New("Hello {{name}}, you have {{count}} cases")
	got := tpl.Render(map[string]any{"name": "ACME", "count": 7})
	want := "Hello ACME, you have 7 cases"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderMissingVariableIsEmpty(t *testing.T) {
	tpl := New("before [{{missing}}] after")
	got := tpl.Render(map[string]any{})
	if got != "before [] after" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderConditional(t *testing.T) {
	tpl := New("{{#if flag}}yes{{/if}}{{#if other}}no{{/if}}")
	got := tpl.Render(map[string]any{"flag": "1", "other": ""})
	if got != "yes" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderConditionalFalsyValues(t *testing.T) {
	for _, v := range []any{"", "0", "false", 0, false, nil} {
		tpl := New("{{#if x}}shown{{/if}}")
		if got := tpl.Render(map[string]any{"x": v}); got != "" {
			t.Fatalf("value %v: got %q, want empty", v, got)
		}
	}
}

func TestRenderLoop(t *testing.T) {
	tpl := New("{{#each cases}}- {{number}}: {{subject}}\n{{/each}}")
	got := tpl.Render(map[string]any{
		"cases": []map[string]any{
			{"number": "01234567", "subject": "first"},
			{"number": "07654321", "subject": "second"},
		},
	})
	want := "- 01234567: first\n- 07654321: second\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderLoopItemShadowsOuterContext(t *testing.T) {
	tpl := New("{{#each items}}{{name}} {{/each}}{{name}}")
	got := tpl.Render(map[string]any{
		"name":  "outer",
		"items": []map[string]any{{"name": "inner"}},
	})
	if got != "inner outer" {
		t.Fatalf("got %q", got)
	}
}

func TestRenderConditionalWrappingLoop(t *testing.T) {
	tpl := New("{{#if has_items}}List:\n{{#each items}}* {{id}}\n{{/each}}{{/if}}")
	got := tpl.Render(map[string]any{
		"has_items": true,
		"items":     []map[string]any{{"id": "a"}, {"id": "b"}},
	})
	want := "List:\n* a\n* b\n"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestRenderIdempotent(t *testing.T) {
	tpl := New("{{#if on}}{{#each xs}}{{v}},{{/each}}{{/if}}done {{who}}")
	ctx := map[string]any{
		"on":  "yes",
		"xs":  []map[string]any{{"v": 1}, {"v": 2}},
		"who": "tester",
	}
	first := tpl.Render(ctx)
	second := tpl.Render(ctx)
	if first != second {
		t.Fatalf("renders differ: %q vs %q", first, second)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.md"))
	if err == nil {
		t.Fatal("expected error for missing template")
	}
	if !strings.Contains(err.Error(), "template not found") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadAndRender(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.md")
	if err := os.WriteFile(path, []byte("# {{title}}"), 0o644); err != nil {
		t.Fatal(err)
	}
	tpl, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := tpl.Render(map[string]any{"title": "Report"}); got != "# Report" {
		t.Fatalf("got %q", got)
	}
}
