package agent

// ToolSpec 描述可供模型调用的工具定义，Parameters 为 JSON Schema object。
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Prompt 代表一次模型调用的完整请求，包括模型、系统指令、消息与工具配置。
type Prompt struct {
	Model    string
	System   string
	Messages []Message
	Tools    []ToolSpec
}

// Required 返回 Parameters 中声明的必填字段。
func (s ToolSpec) Required() []string {
	switch v := s.Parameters["required"].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Properties 返回 Parameters 中的 properties 映射，缺失时为空 map。
func (s ToolSpec) Properties() map[string]any {
	if props, ok := s.Parameters["properties"].(map[string]any); ok {
		return props
	}
	return map[string]any{}
}
