package pricing

// GetAPIStats returns a copy of the current pricing API statistics
func GetAPIStats() map[string]map[string]map[string]int {
	apiStatsLock.RLock()
	defer apiStatsLock.RUnlock()

	// Create a deep copy of the stats
	statsCopy := make(map[string]map[string]map[string]int)
	for service, regions := range apiStats {
		statsCopy[service] = make(map[string]map[string]int)
		for region, stats := range regions {
			statsCopy[service][region] = make(map[string]int)
			for key, value := range stats {
				statsCopy[service][region][key] = value
			}
		}
	}

	return statsCopy
}
