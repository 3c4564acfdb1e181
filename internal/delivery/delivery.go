package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"InsightDigest/internal/ports"
)

// Config is one plugin's string-keyed configuration block. Recognized keys
// are private to each plugin; environment fallbacks are already folded in
// by the config loader.
type Config map[string]string

// Get returns the value for key, or fallback when absent or blank.
func (c Config) Get(key, fallback string) string {
	if v, ok := c[key]; ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}

// Deps carries cross-cutting references a plugin needs while rendering,
// minimally the raw-item store for resolving an insight's originating link.
type Deps struct {
	RawItems ports.RawItemReader
	Logger   *slog.Logger
}

// Plugin is a named strategy for turning stored insights into one outbound
// notification. Plugins hold no persisted state and must not mutate store
// contents. A nil error means delivered; any error means this channel
// failed and the pipeline continues with the remaining channels.
type Plugin interface {
	ID() string
	Deliver(ctx context.Context, insights ports.InsightReader, cfg Config, deps Deps) error
}

// Registry maps plugin ids to implementations. It is populated by explicit
// registration calls at process startup; there is no dynamic loading.
type Registry struct {
	plugins map[string]Plugin
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{plugins: map[string]Plugin{}}
}

// Register adds or replaces a plugin implementation.
func (r *Registry) Register(plugin Plugin) {
	if r.plugins == nil {
		r.plugins = map[string]Plugin{}
	}
	r.plugins[plugin.ID()] = plugin
}

// Resolve returns a plugin by id or an error if it is absent.
func (r *Registry) Resolve(id string) (Plugin, error) {
	if plugin, ok := r.plugins[id]; ok {
		return plugin, nil
	}
	return nil, fmt.Errorf("delivery plugin %s is not registered", id)
}

// IDs returns the registered plugin ids, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.plugins))
	for id := range r.plugins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SplitRecipients normalizes a comma- or semicolon-delimited recipient
// string into trimmed, non-empty addresses.
func SplitRecipients(raw string) []string {
	raw = strings.ReplaceAll(raw, ";", ",")
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
