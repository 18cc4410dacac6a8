// Package schema 将工具目录中的参数类型标签翻译为可校验的参数规则，
// 并渲染成补全 API 使用的 JSON Schema。
package schema

import (
	"encoding/json"
	"fmt"
)

type Kind string

const (
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindString  Kind = "string"
	KindArray   Kind = "array"
)

// Rule 是单个参数的类型规则。数值规则不做位宽范围校验。
type Rule struct {
	Kind        Kind
	Description string
	Items       *Rule
}

func Number(desc string) Rule  { return Rule{Kind: KindNumber, Description: desc} }
func Boolean(desc string) Rule { return Rule{Kind: KindBoolean, Description: desc} }
func String(desc string) Rule  { return Rule{Kind: KindString, Description: desc} }

func Array(items Rule, desc string) Rule {
	return Rule{Kind: KindArray, Description: desc, Items: &items}
}

// Validate 检查解码后的 JSON 值是否符合规则。
func (r Rule) Validate(value any) error {
	switch r.Kind {
	case KindNumber:
		if isNumber(value) {
			return nil
		}
	case KindBoolean:
		if _, ok := value.(bool); ok {
			return nil
		}
	case KindString:
		if _, ok := value.(string); ok {
			return nil
		}
	case KindArray:
		items, ok := value.([]any)
		if !ok {
			break
		}
		if r.Items == nil {
			return nil
		}
		for i, item := range items {
			if err := r.Items.Validate(item); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported rule kind %q", r.Kind)
	}
	return fmt.Errorf("expected %s but got %T", r.Kind, value)
}

func (r Rule) JSONSchema() map[string]any {
	out := map[string]any{"type": string(r.Kind)}
	if r.Description != "" {
		out["description"] = r.Description
	}
	if r.Kind == KindArray {
		items := String("")
		if r.Items != nil {
			items = *r.Items
		}
		out["items"] = items.JSONSchema()
	}
	return out
}

func isNumber(value any) bool {
	switch v := value.(type) {
	case float32, float64:
		return true
	case int, int8, int16, int32, int64:
		return true
	case uint, uint8, uint16, uint32, uint64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	}
	return false
}
