package render

import "github.com/matzehuels/controlgraph/pkg/catalog"

// Palette colours, as hex strings.
const (
	ColorEdge       = "#94a3b8"
	ColorEdgeActive = "#0ea5e9"
	ColorFocus      = "#f59e0b"
	ColorHover      = "#e11d48"
	ColorMuted      = "#cbd5e1"
	ColorText       = "#0f172a"
)

var categoryColors = map[catalog.Category]string{
	catalog.CategoryInternational: "#0ea5e9",
	catalog.CategoryUSFederal:     "#8b5cf6",
	catalog.CategoryUSState:       "#f59e0b",
	catalog.CategoryIndustry:      "#10b981",
	catalog.CategoryRegional:      "#ec4899",
}

// CategoryColor returns the fill colour of a framework category. Unknown
// categories are grey.
func CategoryColor(c catalog.Category) string {
	if col, ok := categoryColors[c]; ok {
		return col
	}
	return "#64748b"
}
