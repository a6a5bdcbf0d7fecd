package models

// Category is a disaster-type tag used to narrow the report feed.
type Category string

// CategoryAll is the sentinel that disables filtering.
const CategoryAll Category = "All"

const (
	CategoryFire       Category = "fire"
	CategoryFlood      Category = "flood"
	CategoryEarthquake Category = "earthquake"
	CategoryHurricane  Category = "hurricane"
	CategoryTornado    Category = "tornado"
	CategoryLandslide  Category = "landslide"
	CategoryTsunami    Category = "tsunami"
	CategoryVolcano    Category = "volcano"
	CategoryMedical    Category = "medical"
	CategoryGeneral    Category = "general"
)

// Categories is the dropdown order.
var Categories = []Category{
	CategoryFire,
	CategoryFlood,
	CategoryEarthquake,
	CategoryHurricane,
	CategoryTornado,
	CategoryLandslide,
	CategoryTsunami,
	CategoryVolcano,
	CategoryMedical,
	CategoryGeneral,
}

var categoryIcons = map[Category]string{
	CategoryFire:       "🔥",
	CategoryFlood:      "🌊",
	CategoryEarthquake: "🌍",
	CategoryHurricane:  "🌀",
	CategoryTornado:    "🌪️",
	CategoryLandslide:  "⛰️",
	CategoryTsunami:    "🌊",
	CategoryVolcano:    "🌋",
	CategoryMedical:    "🚑",
	CategoryGeneral:    "⚠️",
}

// Icon falls back to the general icon for unknown tags.
func (c Category) Icon() string {
	if icon, ok := categoryIcons[c]; ok {
		return icon
	}
	return categoryIcons[CategoryGeneral]
}

func (c Category) String() string {
	return string(c)
}
