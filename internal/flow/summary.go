package flow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BTreeMap/EstatePipe/internal/models"
)

var fieldLabels = map[string]string{
	models.FieldTitle:        "🏠 Title",
	models.FieldPropertyType: "🏢 Type",
	models.FieldCity:         "🌆 City",
	models.FieldNeighborhood: "📍 Neighborhood",
	models.FieldAddress:      "📮 Address",
	models.FieldArea:         "📐 Area",
	models.FieldPrice:        "💰 Price",
	models.FieldRooms:        "🛏 Bedrooms",
	models.FieldFloor:        "🏗 Floor",
	models.FieldYearBuilt:    "📅 Year Built",
	models.FieldParking:      "🅿️ Parking",
	models.FieldElevator:     "🛗 Elevator",
	models.FieldStorage:      "📦 Storage",
	models.FieldDescription:  "📝 Description",
}

var missingFieldNames = map[string]string{
	models.FieldTitle:        "Property title",
	models.FieldPropertyType: "Property type (apartment, house, etc.)",
	models.FieldCity:         "City",
	models.FieldArea:         "Size/Area",
	models.FieldPrice:        "Price",
}

// FormatSummary renders accumulated fields as a labeled list in
// canonical order.
func FormatSummary(fields models.Fields) string {
	var lines []string
	for _, key := range models.CanonicalFieldOrder {
		v, ok := fields[key]
		if !ok || v == nil {
			continue
		}
		lines = append(lines, fieldLabels[key]+": "+formatValue(key, v))
	}
	if len(lines) == 0 {
		return "No information collected yet."
	}
	return strings.Join(lines, "\n")
}

// FormatMissing renders missing required fields as a bullet list.
func FormatMissing(missing []string) string {
	var lines []string
	for _, f := range missing {
		name, ok := missingFieldNames[f]
		if !ok {
			name = f
		}
		lines = append(lines, "• "+name)
	}
	return strings.Join(lines, "\n")
}

// RenderListing turns a stored listing into a chat card.
func RenderListing(l models.Listing) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏠 %s\n", l.Title)
	b.WriteString("━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "📍 Location: %s", l.City)
	if l.Neighborhood != "" {
		fmt.Fprintf(&b, ", %s", l.Neighborhood)
	}
	fmt.Fprintf(&b, "\n📐 Area: %s sq m", trimFloat(l.Area))
	fmt.Fprintf(&b, "\n💰 Price: $%s", groupDigits(strconv.FormatFloat(l.Price, 'f', 0, 64)))
	fmt.Fprintf(&b, "\n🏢 Type: %s", l.PropertyType)
	if l.Rooms != 0 {
		fmt.Fprintf(&b, "\n🛏 Bedrooms: %d", l.Rooms)
	}
	if l.Floor != 0 {
		fmt.Fprintf(&b, "\n🏗 Floor: %d", l.Floor)
	}
	if l.YearBuilt != 0 {
		fmt.Fprintf(&b, "\n📅 Year Built: %d", l.YearBuilt)
	}
	var amenities []string
	if l.Parking {
		amenities = append(amenities, "Parking")
	}
	if l.Elevator {
		amenities = append(amenities, "Elevator")
	}
	if l.Storage {
		amenities = append(amenities, "Storage")
	}
	if len(amenities) > 0 {
		fmt.Fprintf(&b, "\n✨ Amenities: %s", strings.Join(amenities, " | "))
	}
	if l.Address != "" {
		fmt.Fprintf(&b, "\n📮 Address: %s", l.Address)
	}
	if l.Description != "" {
		fmt.Fprintf(&b, "\n📝 Description: %s", l.Description)
	}
	fmt.Fprintf(&b, "\n\n🆔 ID: %d", l.ID)
	return b.String()
}

func formatValue(key string, v any) string {
	switch x := v.(type) {
	case bool:
		if x {
			return "Yes"
		}
		return "No"
	case float64:
		if key == models.FieldPrice || key == models.FieldArea {
			return groupDigits(strconv.FormatFloat(x, 'f', 2, 64))
		}
		return trimFloat(x)
	case int:
		return strconv.Itoa(x)
	case string:
		return x
	}
	return fmt.Sprint(v)
}

// trimFloat drops a trailing ".0" so whole numbers read naturally.
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// groupDigits inserts thousands separators into the integer part of
// an already formatted number.
func groupDigits(s string) string {
	intPart, frac, _ := strings.Cut(s, ".")
	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}
	var out strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(r)
	}
	res := out.String()
	if neg {
		res = "-" + res
	}
	if frac != "" {
		res += "." + frac
	}
	return res
}
