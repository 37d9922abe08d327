package core

import (
	"area_service/internal/domain/model"
	"math"
	"sort"
)

// CategoryAggregator turns the categorized POI snapshot into chart-ready
// per-category counts and percentages.
type CategoryAggregator struct{}

// Aggregate returns one stat per fetched category, ordered by count
// descending with ties broken by category name. Percentages sum to ~100 when
// any POI exists and are all zero otherwise.
func (a CategoryAggregator) Aggregate(pois map[model.Category][]model.POI) []model.CategoryStat {
	total := 0
	for _, list := range pois {
		total += len(list)
	}

	stats := make([]model.CategoryStat, 0, len(pois))
	for category, list := range pois {
		stat := model.CategoryStat{
			Category: category,
			Count:    len(list),
		}
		if total > 0 {
			stat.Percentage = math.Round(float64(len(list))/float64(total)*100*100) / 100
		}
		stats = append(stats, stat)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Category < stats[j].Category
	})

	return stats
}
