package delivery

import (
	"context"
	"fmt"
	"strings"

	"InsightDigest/internal/domain"
	"InsightDigest/internal/ports"
)

// RenderDigest formats insights as a plain-text digest. Payload fields are
// rendered in stored order; the originating article link is resolved from
// the raw-item store and omitted when the lookup fails.
func RenderDigest(ctx context.Context, insights []domain.Insight, rawItems ports.RawItemReader) string {
	var b strings.Builder
	b.WriteString("# Insight Digest\n")
	for i, insight := range insights {
		fmt.Fprintf(&b, "\n## Item %d\n", i+1)
		if rawItems != nil {
			if item, err := rawItems.GetByID(ctx, insight.RawItemID); err == nil {
				fmt.Fprintf(&b, "%s\n%s\n", item.Title, item.URL)
			}
		}
		for _, field := range insight.Data.Fields() {
			fmt.Fprintf(&b, "%s: %s\n", fieldLabel(field.Key), FormatValue(field.Value))
		}
	}
	return b.String()
}

func fieldLabel(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

// FormatValue flattens a payload value to one line. Lists join their
// elements with ", "; objects join "key: value" pairs with "; "; empty
// collections and blank strings render as "-".
func FormatValue(v domain.Value) string {
	switch v.Kind {
	case domain.KindList:
		if len(v.List) == 0 {
			return "-"
		}
		parts := make([]string, 0, len(v.List))
		for _, item := range v.List {
			parts = append(parts, FormatValue(item))
		}
		return strings.Join(parts, ", ")
	case domain.KindObject:
		if v.Obj.Len() == 0 {
			return "-"
		}
		parts := make([]string, 0, v.Obj.Len())
		for _, field := range v.Obj.Fields() {
			parts = append(parts, fmt.Sprintf("%s: %s", fieldLabel(field.Key), FormatValue(field.Value)))
		}
		return strings.Join(parts, "; ")
	default:
		if strings.TrimSpace(v.Str) == "" {
			return "-"
		}
		return v.Str
	}
}
