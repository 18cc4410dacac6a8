package prompts

import (
	"os"
	"strings"
)

const (
	internalPrefix = "@internal/prompts/"
	filePrefix     = "@file:"
)

// Ref 返回内置提示词的引用写法，供配置默认值使用。
func Ref(name Name) string {
	return internalPrefix + string(name)
}

// ResolveReference 将 @internal/prompts/<name> 形式的引用展开为对应的内置提示词文本。
func ResolveReference(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if !strings.HasPrefix(ref, internalPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(ref, internalPrefix)
	if name == "" {
		return "", false
	}
	return Builtin(Name(name))
}

// Resolve 展开配置中的提示词：内置引用、@file:<path> 或原样文本。
// 无法解析的内置引用与读取失败的文件都会返回错误，避免把引用本身当作提示词发给模型。
func Resolve(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(trimmed, internalPrefix):
		if resolved, ok := ResolveReference(trimmed); ok {
			return resolved, nil
		}
		return "", &UnknownPromptError{Ref: trimmed}
	case strings.HasPrefix(trimmed, filePrefix):
		path := strings.TrimSpace(strings.TrimPrefix(trimmed, filePrefix))
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(data)), nil
	}
	return text, nil
}

type UnknownPromptError struct {
	Ref string
}

func (e *UnknownPromptError) Error() string {
	return "unknown builtin prompt " + e.Ref
}
