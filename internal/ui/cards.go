package ui

// 卡片变体名。
const (
	VariantAddRFP     = "add-rfp"
	VariantBalance    = "balance"
	VariantPurchase   = "purchase"
	VariantToolResult = "tool-result"
)

var defaultCards = map[string]string{
	"addRFP":     VariantAddRFP,
	"getBalance": VariantBalance,
	"balanceOf":  VariantBalance,
}

// Cards 按工具名精确匹配卡片变体。
type Cards struct {
	variants map[string]string
}

// NewCards 在默认映射之上叠加 extra（通常来自配置 [ui.cards]）。
func NewCards(extra map[string]string) Cards {
	m := make(map[string]string, len(defaultCards)+len(extra))
	for k, v := range defaultCards {
		m[k] = v
	}
	for k, v := range extra {
		if k == "" || v == "" {
			continue
		}
		m[k] = v
	}
	return Cards{variants: m}
}

func DefaultCards() Cards {
	return NewCards(nil)
}

func (c Cards) Variant(toolName string) (string, bool) {
	if c.variants == nil {
		v, ok := defaultCards[toolName]
		return v, ok
	}
	v, ok := c.variants[toolName]
	return v, ok
}

// VariantOrDefault 在没有匹配时返回通用的 tool-result 卡片。
func (c Cards) VariantOrDefault(toolName string) string {
	if v, ok := c.Variant(toolName); ok {
		return v
	}
	return VariantToolResult
}
