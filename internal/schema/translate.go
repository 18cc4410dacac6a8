package schema

import "strings"

// TagGeneric 标记无法静态描述的参数，翻译时直接省略。
const TagGeneric = "generic"

var factories = map[string]func(desc string) Rule{
	"u8":                     Number,
	"u64":                    Number,
	"u128":                   Number,
	"bool":                   Boolean,
	"address":                String,
	"vector<u8>":             String,
	"vector<address>":        stringArray,
	"vector<string::String>": stringArray,
}

func stringArray(desc string) Rule {
	return Array(String(""), desc)
}

// Translate 将类型标签映射为规则。generic 返回 ok=false；未知标签回退为字符串规则。
func Translate(tag, description string) (Rule, bool) {
	tag = strings.TrimSpace(tag)
	if tag == TagGeneric {
		return Rule{}, false
	}
	if factory, ok := factories[tag]; ok {
		return factory(description), true
	}
	return String(description), true
}

// Known 报告标签是否在固定词表内（generic 也算已知）。
func Known(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == TagGeneric {
		return true
	}
	_, ok := factories[tag]
	return ok
}
