package tools

import (
	"strings"
	"time"

	"contract-agent/internal/agent"
	"contract-agent/internal/catalog"
	"contract-agent/internal/logger"
	"contract-agent/internal/schema"
	"contract-agent/internal/state"
	"contract-agent/internal/ui"
)

// Builder 持有跨回合不变的生成器配置。
type Builder struct {
	Model      agent.ModelClient
	Cards      ui.Cards
	EntryDelay time.Duration
	ViewSystem string
	ViewPrompt string
}

// NormalizeName 去掉目录名称中的 ':'（目录使用 module::function 形式）。
func NormalizeName(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), ":", "")
}

// Build 将目录折叠为工具表，生成器绑定到 turn。
// 规范化后同名的条目后者覆盖前者，只记录告警。
func (b *Builder) Build(entries []catalog.Entry, turn *state.Turn) *Registry {
	log := logger.Named("tools")
	reg := &Registry{descriptors: make(map[string]*Descriptor, len(entries))}

	for _, entry := range entries {
		name := NormalizeName(entry.Name)
		if name == "" {
			log.WithField("catalog_id", entry.ID).Warn("skipping catalog entry without a name")
			continue
		}
		d := &Descriptor{
			Name:        name,
			Description: entry.Tool.Description,
			Kind:        entry.Kind(),
			CatalogID:   entry.ID,
			Schema:      translateParams(name, entry.Tool.Params),
		}
		switch d.Kind {
		case catalog.KindView:
			d.Generate = b.viewGenerator(d, turn)
		default:
			d.Generate = b.entryGenerator(d, turn)
		}
		if prev, dup := reg.descriptors[name]; dup {
			log.WithFields(logger.Fields{
				"tool":     name,
				"previous": prev.CatalogID,
				"current":  entry.ID,
			}).Warn("duplicate tool name, last definition wins")
		}
		reg.descriptors[name] = d
	}
	log.WithField("tools", reg.Len()).Debug("registry built")
	return reg
}

func translateParams(tool string, params map[string]catalog.Param) *schema.Object {
	log := logger.Named("tools")
	obj := schema.NewObject()
	for pname, p := range params {
		rule, ok := schema.Translate(p.Type, p.Description)
		if !ok {
			log.WithFields(logger.Fields{"tool": tool, "param": pname}).Debug("generic parameter omitted from schema")
			continue
		}
		if !schema.Known(p.Type) {
			log.WithFields(logger.Fields{"tool": tool, "param": pname, "tag": p.Type}).Debug("unknown type tag, using string rule")
		}
		obj.Set(pname, rule)
	}
	return obj
}
