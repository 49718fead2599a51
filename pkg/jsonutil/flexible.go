// Package jsonutil holds helpers for parsing loosely-typed JSON produced by
// language models, which routinely mix up strings, numbers, and booleans.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases where
// LLMs return numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	// Try string first
	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	// Try number
	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	// Try boolean
	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	// Fallback: return raw string representation
	return string(raw)
}

// FlexibleIntValue converts a json.RawMessage to an int, handling models that
// return "3", 3, or 3.0 interchangeably. Returns the fallback when the value
// is null, missing, or not interpretable as a number.
func FlexibleIntValue(raw json.RawMessage, fallback int) int {
	if len(raw) == 0 || string(raw) == "null" {
		return fallback
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return int(numVal)
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(strVal), 64); err == nil {
			return int(parsed)
		}
	}

	return fallback
}

// FlexibleFloatValue converts a json.RawMessage to a float64, accepting numeric
// strings as well as numbers. Returns the fallback when the value is null,
// missing, or not interpretable as a number.
func FlexibleFloatValue(raw json.RawMessage, fallback float64) float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return fallback
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		return numVal
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(strVal), 64); err == nil {
			return parsed
		}
	}

	return fallback
}

// FlexibleStringSlice converts a json.RawMessage to a []string, accepting either
// a JSON array (with mixed element types) or a single scalar value. Returns nil
// for null/empty input.
func FlexibleStringSlice(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var rawItems []json.RawMessage
	if err := json.Unmarshal(raw, &rawItems); err == nil {
		items := make([]string, 0, len(rawItems))
		for _, item := range rawItems {
			if s := FlexibleStringValue(item); s != "" {
				items = append(items, s)
			}
		}
		return items
	}

	if s := FlexibleStringValue(raw); s != "" {
		return []string{s}
	}
	return nil
}
