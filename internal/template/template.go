// Package template implements the three-construct mustache dialect the
// report templates use: {{var}}, {{#if var}}...{{/if}} and
// {{#each items}}...{{/each}}. It is deliberately minimal; the templates
// never need expressions or nesting.
package template

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"tamreport/internal/domain"
)

type Template struct {
	text string
}

func New(text string) *Template {
	return &Template{text: text}
}

// Load reads a template file from disk.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.RenderError{Reason: "template not found: " + path, Err: err}
	}
	return &Template{text: string(data)}, nil
}

var (
	ifRe   = regexp.MustCompile(`(?s)\{\{#if\s+(\w+)\}\}(.*?)\{\{/if\}\}`)
	eachRe = regexp.MustCompile(`(?s)\{\{#each\s+(\w+)\}\}(.*?)\{\{/each\}\}`)
	varRe  = regexp.MustCompile(`\{\{(\w+)\}\}`)
)

// Render resolves the template against a flat context map. Conditionals run
// first, then loops, then variable substitution; variables not present in
// the context render as the empty string.
func (t *Template) Render(ctx map[string]any) string {
	out := t.text

	out = ifRe.ReplaceAllStringFunc(out, func(block string) string {
		m := ifRe.FindStringSubmatch(block)
		if truthy(ctx[m[1]]) {
			return m[2]
		}
		return ""
	})

	out = eachRe.ReplaceAllStringFunc(out, func(block string) string {
		m := eachRe.FindStringSubmatch(block)
		items, ok := ctx[m[1]].([]map[string]any)
		if !ok {
			return ""
		}
		var b strings.Builder
		for _, item := range items {
			merged := make(map[string]any, len(ctx)+len(item))
			for k, v := range ctx {
				merged[k] = v
			}
			for k, v := range item {
				merged[k] = v
			}
			b.WriteString(substitute(m[2], merged))
		}
		return b.String()
	})

	return substitute(out, ctx)
}

func substitute(text string, ctx map[string]any) string {
	return varRe.ReplaceAllStringFunc(text, func(tok string) string {
		name := tok[2 : len(tok)-2]
		v, ok := ctx[name]
		if !ok {
			return ""
		}
		return stringify(v)
	})
}

func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// truthy mirrors the conditional semantics: a value is truthy when it is
// present, non-empty and not "0" or "false".
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != "" && x != "0" && x != "false"
	case []map[string]any:
		return len(x) > 0
	default:
		s := stringify(x)
		return s != "" && s != "0" && s != "false"
	}
}
