package tools

import (
	"context"
	"encoding/json"
	"sort"

	"contract-agent/internal/agent"
	"contract-agent/internal/catalog"
	"contract-agent/internal/schema"
	"contract-agent/internal/ui"
)

// Generator 是可挂起的界面生产者：可多次 yield 中间节点，返回值为最终节点。
type Generator func(ctx context.Context, args json.RawMessage, yield func(*ui.Node)) (*ui.Node, error)

// Descriptor 是暴露给模型的一个工具。
type Descriptor struct {
	Name        string
	Description string
	Kind        catalog.Kind
	CatalogID   string
	Schema      *schema.Object
	Generate    Generator
}

func (d *Descriptor) Spec() agent.ToolSpec {
	return agent.ToolSpec{
		Name:        d.Name,
		Description: d.Description,
		Parameters:  d.Schema.JSONSchema(),
	}
}

// Registry 是按规范化名称索引的工具表，每个用户回合重新构建。
type Registry struct {
	descriptors map[string]*Descriptor
}

func NewRegistry(descriptors ...*Descriptor) *Registry {
	table := make(map[string]*Descriptor, len(descriptors))
	for _, d := range descriptors {
		if d == nil {
			continue
		}
		table[d.Name] = d
	}
	return &Registry{descriptors: table}
}

func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	if r == nil {
		return nil, false
	}
	d, ok := r.descriptors[name]
	return d, ok
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.descriptors)
}

func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Specs 按名称排序输出给补全 API 的工具定义。
func (r *Registry) Specs() []agent.ToolSpec {
	names := r.Names()
	specs := make([]agent.ToolSpec, 0, len(names))
	for _, name := range names {
		specs = append(specs, r.descriptors[name].Spec())
	}
	return specs
}
