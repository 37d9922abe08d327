package model

// Category is the closed internal POI taxonomy. Provider tags are mapped onto
// it at ingestion; anything unmapped lands in CategoryOther.
type Category string

const (
	CategoryGrocery    Category = "grocery"
	CategorySchool     Category = "school"
	CategoryTransit    Category = "transit"
	CategoryHealthcare Category = "healthcare"
	CategoryPark       Category = "park"
	CategoryRestaurant Category = "restaurant"
	CategoryOther      Category = "other"
)

// Categories returns the set of categories fetched for every analysis.
func Categories() []Category {
	return []Category{
		CategoryGrocery,
		CategorySchool,
		CategoryTransit,
		CategoryHealthcare,
		CategoryPark,
		CategoryRestaurant,
	}
}

// EssentialCategories returns the categories that contribute to the
// proximity score. The restaurant category is charted but carries no weight.
func EssentialCategories() []Category {
	return []Category{
		CategoryGrocery,
		CategorySchool,
		CategoryHealthcare,
		CategoryTransit,
		CategoryPark,
	}
}

// tagKeys fixes the lookup order for mixed-use POIs carrying several mapped
// keys: the first matching key wins, so identical tags always classify the same.
var tagKeys = []string{"shop", "amenity", "highway", "railway", "leisure"}

// tagCategories maps OSM key=value pairs onto the internal taxonomy.
var tagCategories = map[string]map[string]Category{
	"shop": {
		"supermarket": CategoryGrocery,
		"convenience": CategoryGrocery,
		"greengrocer": CategoryGrocery,
		"grocery":     CategoryGrocery,
	},
	"amenity": {
		"marketplace":  CategoryGrocery,
		"school":       CategorySchool,
		"kindergarten": CategorySchool,
		"college":      CategorySchool,
		"university":   CategorySchool,
		"hospital":     CategoryHealthcare,
		"clinic":       CategoryHealthcare,
		"doctors":      CategoryHealthcare,
		"pharmacy":     CategoryHealthcare,
		"bus_station":  CategoryTransit,
		"restaurant":   CategoryRestaurant,
		"cafe":         CategoryRestaurant,
		"fast_food":    CategoryRestaurant,
		"bar":          CategoryRestaurant,
		"pub":          CategoryRestaurant,
	},
	"highway": {
		"bus_stop": CategoryTransit,
	},
	"railway": {
		"station":   CategoryTransit,
		"halt":      CategoryTransit,
		"tram_stop": CategoryTransit,
	},
	"leisure": {
		"park":       CategoryPark,
		"playground": CategoryPark,
		"garden":     CategoryPark,
	},
}

// CategoryForTags maps a provider tag set onto the internal taxonomy,
// falling back to CategoryOther. Tags are never silently dropped.
func CategoryForTags(tags map[string]string) Category {
	for _, key := range tagKeys {
		if v, ok := tags[key]; ok {
			if cat, ok := tagCategories[key][v]; ok {
				return cat
			}
		}
	}
	return CategoryOther
}
