package synonyms

import (
	"encoding/json"
	"fmt"
	"os"
)

// JSON shapes of the key files shipped alongside the table release.
type keyDoc struct {
	Data map[string][]string `json:"data"`
}

type aggregationDoc struct {
	Records []AggregationRecord `json:"records"`
}

// LoadBodyPartKey reads a body-part synonym file.
func LoadBodyPartKey(path string) (*BodyPartKey, error) {
	var doc keyDoc
	if err := readJSON(path, &doc); err != nil {
		return nil, fmt.Errorf("load body part key: %w", err)
	}
	return NewBodyPartKey(doc.Data), nil
}

// LoadDeviceKey reads a device synonym file.
func LoadDeviceKey(path string) (*DeviceKey, error) {
	var doc keyDoc
	if err := readJSON(path, &doc); err != nil {
		return nil, fmt.Errorf("load device key: %w", err)
	}
	return NewDeviceKey(doc.Data), nil
}

// LoadDeviceAggregation reads a device aggregation file.
func LoadDeviceAggregation(path string) (*DeviceAggregation, error) {
	var doc aggregationDoc
	if err := readJSON(path, &doc); err != nil {
		return nil, fmt.Errorf("load device aggregation: %w", err)
	}
	return NewDeviceAggregation(doc.Records), nil
}

func readJSON(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
