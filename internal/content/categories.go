package content

// Category is one of the fixed blog sections.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Count       int    `json:"count"`
}

var categories = []Category{
	{ID: "theoretical-ai", Name: "Teorik AI", Description: "Yapay zekanın matematiksel temelleri ve algoritma teorisi"},
	{ID: "machine-learning", Name: "Makine Öğrenmesi", Description: "Derin öğrenme ve pratik ML uygulamaları"},
	{ID: "research-reviews", Name: "Araştırma İncelemeleri", Description: "Akademik makaleler ve araştırma trendleri"},
	{ID: "energy-sustainability", Name: "Enerji & Sürdürülebilirlik", Description: "Sürdürülebilir AI ve yeşil teknolojiler"},
	{ID: "implementation", Name: "Uygulama", Description: "Kod örnekleri ve pratik projeler"},
	{ID: "career-insights", Name: "Kariyer İpuçları", Description: "AI kariyeri ve profesyonel gelişim"},
}

// Categories returns the fixed category list without counts.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// CategoryName returns the display name for id, or id itself when unknown.
func CategoryName(id string) string {
	for _, c := range categories {
		if c.ID == id {
			return c.Name
		}
	}
	return id
}
