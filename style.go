package inactive

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vango-dev/inactive/internal/errors"
	"github.com/vango-dev/inactive/pkg/dom"
)

// Declaration is one CSS property of a Style.
type Declaration struct {
	Property string
	Value    any
}

// Style is an ordered list of CSS declarations. Property names may be
// camelCase (backgroundColor) or CSS (background-color). String values are
// used as-is, numbers get a px suffix and nil values are skipped.
type Style []Declaration

// CSS builds a Style from alternating property names and values. It panics
// on a malformed argument list, like P.
func CSS(kv ...any) Style {
	props := P(kv...)
	style := make(Style, len(props))
	for i, p := range props {
		style[i] = Declaration{Property: p.Key, Value: p.Value}
	}
	return style
}

// StyleText converts a style prop value to style attribute text, e.g.
// "color: red; width: 100px;". It accepts a Style, a map[string]any or
// map[string]string (sorted by property name) and a raw string.
func StyleText(v any) (string, error) {
	var decls Style
	switch s := v.(type) {
	case string:
		return s, nil
	case Style:
		decls = s
	case map[string]any:
		for _, k := range sortedKeys(s) {
			decls = append(decls, Declaration{Property: k, Value: s[k]})
		}
	case map[string]string:
		for _, k := range sortedKeys(s) {
			decls = append(decls, Declaration{Property: k, Value: s[k]})
		}
	default:
		return "", errors.New("E103").WithDetailf("style must be a Style, map or string, got %T", v)
	}

	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		if d.Value == nil {
			continue
		}
		value, err := cssValue(d.Value)
		if err != nil {
			return "", errors.New("E103").WithDetailf("%s: %v", d.Property, err)
		}
		parts = append(parts, cssName(d.Property)+": "+value+";")
	}
	return strings.Join(parts, " "), nil
}

func cssValue(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	if f, ok := toFloat(v); ok {
		return dom.FormatNumber(f) + "px", nil
	}
	return "", fmt.Errorf("unsupported value %s", describe(v))
}

// cssName converts a camelCase property name to CSS. Custom properties
// (--name) are left alone.
func cssName(name string) string {
	if strings.HasPrefix(name, "--") {
		return name
	}
	var b strings.Builder
	if len(name) > 2 && strings.HasPrefix(name, "ms") && isUpper(name[2]) {
		b.WriteByte('-')
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isUpper(c) {
			b.WriteByte('-')
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
