package utils

import (
	"encoding/json"
	"fmt"
)

// ParseJSON parses a JSON string into a map
func ParseJSON(jsonStr string) (map[string]interface{}, error) {
	var result map[string]interface{}
	err := json.Unmarshal([]byte(jsonStr), &result)
	if err != nil {
		return nil, fmt.Errorf("error parsing JSON: %w", err)
	}
	return result, nil
}

// GetFirstMapValue returns an arbitrary value from a map, or an error when
// the map is empty. Pricing API responses key offers by SKU, and only one
// offer is present once the filters have narrowed the result.
func GetFirstMapValue(m map[string]interface{}) (interface{}, error) {
	for _, v := range m {
		return v, nil
	}
	return nil, fmt.Errorf("map is empty")
}
