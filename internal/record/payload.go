package record

import (
	"encoding/json"
	"fmt"
)

// The service takes structured values as JSON strings inside form fields.
// Each payload shape has one encoder and one decoder here.

// EncodeLines encodes result lines verbatim for results_data and ngrams_data
func EncodeLines(lines []string) (string, error) {
	return encodeStrings(lines)
}

// DecodeLines is the inverse of EncodeLines
func DecodeLines(payload string) ([]string, error) {
	return decodeStrings(payload)
}

// EncodeNames encodes file or n-gram names for selected_files and selected_ngrams
func EncodeNames(names []string) (string, error) {
	return encodeStrings(names)
}

// DecodeNames is the inverse of EncodeNames
func DecodeNames(payload string) ([]string, error) {
	return decodeStrings(payload)
}

// encodeStrings always yields a JSON array; nil encodes as "[]"
func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return string(data), nil
}

func decodeStrings(payload string) ([]string, error) {
	var values []string
	if err := json.Unmarshal([]byte(payload), &values); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}
