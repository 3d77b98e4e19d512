package common

import "fmt"

// PreviewResultRedisKey addresses one sandbox spin result. Preview data
// lives only in redis so it can never leak into production quota counters.
func PreviewResultRedisKey(campaignID, previewID string) string {
	return fmt.Sprintf("preview:%s:%s", campaignID, previewID)
}
