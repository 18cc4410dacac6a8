package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Object 是一个工具的参数 schema：所有参数必填，不允许额外字段。
type Object struct {
	rules map[string]Rule
}

func NewObject() *Object {
	return &Object{rules: make(map[string]Rule)}
}

func (o *Object) Set(name string, rule Rule) {
	o.rules[name] = rule
}

func (o *Object) Rule(name string) (Rule, bool) {
	r, ok := o.rules[name]
	return r, ok
}

// Names 返回排序后的参数名。
func (o *Object) Names() []string {
	names := make([]string, 0, len(o.rules))
	for name := range o.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (o *Object) Len() int {
	return len(o.rules)
}

func (o *Object) JSONSchema() map[string]any {
	names := o.Names()
	props := make(map[string]any, len(names))
	for _, name := range names {
		props[name] = o.rules[name].JSONSchema()
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             names,
		"additionalProperties": false,
	}
}

// Validate 检查必填字段、字段类型与多余字段，不做跨字段校验。
func (o *Object) Validate(args map[string]any) error {
	for _, name := range o.Names() {
		value, ok := args[name]
		if !ok {
			return fmt.Errorf("missing required field: %s", name)
		}
		if err := o.rules[name].Validate(value); err != nil {
			return fmt.Errorf("field %s: %w", name, err)
		}
	}
	for key := range args {
		if _, ok := o.rules[key]; !ok {
			return fmt.Errorf("unexpected field: %s", key)
		}
	}
	return nil
}

// ValidateJSON 解码原始参数（保留数字精度）后校验。
func (o *Object) ValidateJSON(raw json.RawMessage) error {
	args := map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&args); err != nil {
			return fmt.Errorf("decode arguments: %w", err)
		}
	}
	return o.Validate(args)
}
