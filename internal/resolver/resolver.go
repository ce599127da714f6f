// Package resolver walks arbitrarily nested configuration values and
// resolves provider tags and ${name} variable references at request-build
// time.
package resolver

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ramazansakin/firedrill/internal/provider"
)

// refPattern matches ${name} variable references inside a string.
var refPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Resolver resolves templates against the provider registry and the config
// lookup tables. It is read-only after construction and safe for concurrent
// use.
type Resolver struct {
	registry *provider.Registry
	tables   []map[string]any
}

// New creates a Resolver. The tables are consulted for ${name} references in
// precedence order: variables, generators, datasets, ranges.
func New(registry *provider.Registry, variables, generators, datasets, ranges map[string]any) *Resolver {
	return &Resolver{
		registry: registry,
		tables:   []map[string]any{variables, generators, datasets, ranges},
	}
}

// Resolve produces a fully resolved copy of value. The input is never
// mutated; mappings and sequences keep their shape. Dynamic providers are
// invoked fresh for every occurrence, so resolving the same template twice
// may yield different concrete values.
func (r *Resolver) Resolve(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = r.Resolve(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprint(key)] = r.Resolve(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = r.Resolve(item)
		}
		return out
	case string:
		return r.resolveString(v)
	default:
		return value
	}
}

// ResolveString resolves a single string template, rendering the result in
// its default textual form. Useful for header values and URL fragments.
func (r *Resolver) ResolveString(value string) string {
	return render(r.resolveString(value))
}

func (r *Resolver) resolveString(value string) any {
	if p, ok := r.registry.Lookup(value); ok {
		return p.Resolve()
	}
	if strings.Contains(value, "${") {
		return r.substitute(value)
	}
	return value
}

// substitute replaces every ${name} occurrence by looking the name up across
// the tables in precedence order. Unknown names keep the placeholder intact.
func (r *Resolver) substitute(value string) string {
	return refPattern.ReplaceAllStringFunc(value, func(match string) string {
		parts := refPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		name := parts[1]
		for _, table := range r.tables {
			if table == nil {
				continue
			}
			if found, ok := table[name]; ok {
				return render(found)
			}
		}
		return match
	})
}

func render(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprint(value)
}
