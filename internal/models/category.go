package models

// Category 报告分类，固定枚举
type Category string

const (
	CategoryInfrastruktur Category = "infrastruktur"
	CategoryLingkungan    Category = "lingkungan"
	CategoryKeamanan      Category = "keamanan"
	CategoryKesehatan     Category = "kesehatan"
	CategoryPendidikan    Category = "pendidikan"
	CategorySosial        Category = "sosial"
)

// CategoryInfo carries the display label used by the HTML pages.
type CategoryInfo struct {
	ID    Category `json:"id"`
	Label string   `json:"label"`
	Icon  string   `json:"icon"`
}

var categories = []CategoryInfo{
	{ID: CategoryInfrastruktur, Label: "Infrastruktur", Icon: "🏗️"},
	{ID: CategoryLingkungan, Label: "Lingkungan", Icon: "🌱"},
	{ID: CategoryKeamanan, Label: "Keamanan", Icon: "🛡️"},
	{ID: CategoryKesehatan, Label: "Kesehatan", Icon: "🏥"},
	{ID: CategoryPendidikan, Label: "Pendidikan", Icon: "📚"},
	{ID: CategorySosial, Label: "Sosial", Icon: "🤝"},
}

// Categories returns every category in display order.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, len(categories))
	copy(out, categories)
	return out
}

func (c Category) Valid() bool {
	for _, info := range categories {
		if info.ID == c {
			return true
		}
	}
	return false
}

// Label returns the display label, or the raw value for unknown categories.
func (c Category) Label() string {
	for _, info := range categories {
		if info.ID == c {
			return info.Icon + " " + info.Label
		}
	}
	return string(c)
}
