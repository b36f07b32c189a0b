package flow

import (
	"strings"
	"testing"

	"github.com/BTreeMap/EstatePipe/internal/models"
)

func TestFormatSummary(t *testing.T) {
	fields := models.Fields{
		models.FieldTitle:   "Sunny loft",
		models.FieldPrice:   450000.0,
		models.FieldRooms:   2,
		models.FieldParking: true,
		models.FieldStorage: false,
	}

	got := FormatSummary(fields)

	for _, want := range []string{"🏠 Title: Sunny loft", "💰 Price: 450,000.00", "🛏 Bedrooms: 2", "🅿️ Parking: Yes", "📦 Storage: No"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}

	// Canonical order: title before price.
	if strings.Index(got, "Title") > strings.Index(got, "Price") {
		t.Errorf("fields out of canonical order:\n%s", got)
	}
}

func TestFormatSummaryEmpty(t *testing.T) {
	if got := FormatSummary(models.Fields{}); got != "No information collected yet." {
		t.Errorf("FormatSummary(empty) = %q", got)
	}
}

func TestFormatMissing(t *testing.T) {
	got := FormatMissing([]string{models.FieldTitle, models.FieldPrice})
	if !strings.Contains(got, "• Property title") || !strings.Contains(got, "• Price") {
		t.Errorf("FormatMissing() = %q", got)
	}
}

func TestRenderListing(t *testing.T) {
	l := models.Listing{
		ID:           7,
		Title:        "Garden house",
		PropertyType: "House",
		City:         "Salem",
		Neighborhood: "Old Town",
		Area:         140,
		Price:        780000,
		Rooms:        4,
		Parking:      true,
		Storage:      true,
		Description:  "quiet street",
	}

	got := RenderListing(l)

	for _, want := range []string{
		"🏠 Garden house",
		"📍 Location: Salem, Old Town",
		"📐 Area: 140 sq m",
		"💰 Price: $780,000",
		"🛏 Bedrooms: 4",
		"✨ Amenities: Parking | Storage",
		"📝 Description: quiet street",
		"🆔 ID: 7",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("card missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Floor") || strings.Contains(got, "Year Built") {
		t.Errorf("zero-valued optional lines should be omitted:\n%s", got)
	}
}

func TestGroupDigits(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"450000.00", "450,000.00"},
		{"1234567", "1,234,567"},
		{"999", "999"},
		{"-1000", "-1,000"},
	}
	for _, tt := range tests {
		if got := groupDigits(tt.in); got != tt.want {
			t.Errorf("groupDigits(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
