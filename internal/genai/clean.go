package genai

import (
	"strconv"
	"strings"

	"github.com/BTreeMap/EstatePipe/internal/models"
)

var (
	floatFields  = map[string]bool{models.FieldArea: true, models.FieldPrice: true}
	intFields    = map[string]bool{models.FieldRooms: true, models.FieldFloor: true, models.FieldYearBuilt: true}
	truthyValues = map[string]bool{"true": true, "yes": true, "1": true, "has": true, "available": true}

	rangeFilterKeys  = map[string]bool{"min_area": true, "max_area": true, "min_price": true, "max_price": true}
	textFilterKeys   = map[string]bool{"property_type": true, "city": true, "neighborhood": true}
	boolFilterKeys   = map[string]bool{"parking": true, "elevator": true}
	truthyFilterVals = map[string]bool{"true": true, "yes": true, "1": true, "required": true, "needed": true}
)

// cleanListingFields coerces raw model output into typed field
// values. Nulls, empty strings, unparseable numbers and unknown keys
// are dropped rather than propagated.
func cleanListingFields(raw map[string]any) models.Fields {
	cleaned := models.Fields{}
	for key, value := range raw {
		if !models.KnownField(key) || isNullish(value) {
			continue
		}
		switch {
		case floatFields[key]:
			if f, ok := toFloat(value); ok {
				cleaned[key] = f
			}
		case intFields[key]:
			if n, ok := toInt(value); ok {
				cleaned[key] = n
			}
		case models.BooleanFields[key]:
			if b, ok := toBool(value, truthyValues); ok {
				cleaned[key] = b
			}
		default:
			if s := strings.TrimSpace(toString(value)); s != "" {
				cleaned[key] = s
			}
		}
	}
	return cleaned
}

// cleanSearchFilters applies the same coercion discipline to filter
// criteria.
func cleanSearchFilters(raw map[string]any) models.Filters {
	cleaned := models.Filters{}
	for key, value := range raw {
		if isNullish(value) {
			continue
		}
		switch {
		case rangeFilterKeys[key]:
			if f, ok := toFloat(value); ok {
				cleaned[key] = f
			}
		case key == "rooms":
			if n, ok := toInt(value); ok {
				cleaned[key] = n
			}
		case boolFilterKeys[key]:
			if b, ok := toBool(value, truthyFilterVals); ok {
				cleaned[key] = b
			}
		case textFilterKeys[key]:
			if s := strings.TrimSpace(toString(value)); s != "" {
				cleaned[key] = s
			}
		}
	}
	return cleaned
}

func isNullish(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == "" || s == "null"
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		return int(x), true
	case int:
		return x, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		return n, err == nil
	}
	return 0, false
}

func toBool(v any, truthy map[string]bool) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		return truthy[strings.ToLower(x)], true
	}
	return false, false
}

func toString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return ""
	}
}
