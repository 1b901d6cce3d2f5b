package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/warnbridge/warnbridge/internal/helper"
)

// expandTargets resolves a route's TargetsSpec against a transform
// context into the flat "service:target" list the pipeline enqueues
// jobs for.
func expandTargets(helpers *helper.Registry, route *Route, ctx *TransformContext, topic string) ([]string, error) {
	switch route.Targets.Kind {
	case TargetsStatic:
		return route.Targets.Static, nil
	case TargetsTemplate:
		rendered := renderTemplate(route.Targets.Template, ctx, route.StrictPlaceholders)
		parts := strings.Split(rendered, ",")
		out := make([]string, 0, len(parts))
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out, nil
	case TargetsComputed:
		fn, err := helpers.Targets(route.Targets.Helper)
		if err != nil {
			return nil, err
		}
		return fn(ctx, topic)
	default:
		return nil, fmt.Errorf("unknown targets kind %d", route.Targets.Kind)
	}
}

// renderTemplate interpolates {field} placeholders against ctx. A
// missing field renders as the literal placeholder text unless strict
// is set, in which case it renders as an empty string.
func renderTemplate(tmpl string, ctx *TransformContext, strict bool) string {
	var b strings.Builder
	i := 0
	for i < len(tmpl) {
		open := strings.IndexByte(tmpl[i:], '{')
		if open == -1 {
			b.WriteString(tmpl[i:])
			break
		}
		open += i
		b.WriteString(tmpl[i:open])

		close := strings.IndexByte(tmpl[open:], '}')
		if close == -1 {
			b.WriteString(tmpl[open:])
			break
		}
		close += open

		field := tmpl[open+1 : close]
		if v, ok := ctx.Value(field); ok {
			b.WriteString(stringify(v))
		} else if strict {
			// strict mode keeps the original bug-compatible behavior
			// of rendering an empty string on a miss.
		} else {
			b.WriteString(tmpl[open : close+1])
		}
		i = close + 1
	}
	return b.String()
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
