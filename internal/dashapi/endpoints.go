package dashapi

import (
	"net/url"
)

// Paths are relative to the dashboard base URL.

func PlotPath(metricKey string) string {
	return "/api/plots/" + url.PathEscape(metricKey)
}

func PlotQuery(entityID string) url.Values {
	return url.Values{"pot_id": []string{entityID}}
}

func LatestValuePath(entityID string) string {
	return "/api/data/latest-value/" + url.PathEscape(entityID)
}

func TodayPath(entityID string) string {
	return "/api/data/all-today/" + url.PathEscape(entityID)
}

func SunlightPath(entityID string) string {
	return "/api/data/sunlight-30days/" + url.PathEscape(entityID)
}

func AveragePath(entityID string) string {
	return "/api/data/average-mtd/" + url.PathEscape(entityID)
}
