package nlu

import (
	"reflect"
	"testing"

	"github.com/BTreeMap/EstatePipe/internal/models"
)

func TestMergeOverwritesAndClears(t *testing.T) {
	base := models.Fields{
		models.FieldTitle: "Cozy flat",
		models.FieldCity:  "Boston",
		models.FieldRooms: 2,
	}
	update := models.Fields{
		models.FieldCity:    "Cambridge",
		models.FieldRooms:   nil,
		models.FieldParking: false,
	}

	got := Merge(base, update)

	want := models.Fields{
		models.FieldTitle:   "Cozy flat",
		models.FieldCity:    "Cambridge",
		models.FieldParking: false,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Merge() = %v, want %v", got, want)
	}
	if _, ok := base[models.FieldRooms]; !ok {
		t.Error("Merge() mutated its base argument")
	}
}

func TestMergeNilBase(t *testing.T) {
	got := Merge(nil, models.Fields{models.FieldCity: "Boston"})
	if got[models.FieldCity] != "Boston" {
		t.Errorf("Merge(nil, update) = %v, want city preserved", got)
	}
}

func TestMergeKeepsFalseDistinctFromCleared(t *testing.T) {
	got := Merge(models.Fields{}, models.Fields{models.FieldElevator: false})
	v, ok := got[models.FieldElevator]
	if !ok {
		t.Fatal("false value was dropped during merge")
	}
	if v != false {
		t.Errorf("elevator = %v, want false", v)
	}
}

func TestApplyDeletionsKeepsNilMarkers(t *testing.T) {
	got := ApplyDeletions(nil, models.Fields{models.FieldDescription: nil, models.FieldParking: false})
	if v, ok := got[models.FieldDescription]; !ok || v != nil {
		t.Errorf("nil marker lost: %v", got)
	}
	if got[models.FieldParking] != false {
		t.Errorf("boolean marker lost: %v", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		fields  models.Fields
		missing []string
	}{
		{
			name: "complete",
			fields: models.Fields{
				models.FieldTitle:        "Sunny loft",
				models.FieldPropertyType: "Apartment",
				models.FieldCity:         "Boston",
				models.FieldArea:         88.5,
				models.FieldPrice:        450000.0,
			},
			missing: nil,
		},
		{
			name:    "empty",
			fields:  models.Fields{},
			missing: []string{"title", "property_type", "city", "area", "price"},
		},
		{
			name: "blank string counts as missing",
			fields: models.Fields{
				models.FieldTitle:        "  ",
				models.FieldPropertyType: "House",
				models.FieldCity:         "Boston",
				models.FieldArea:         120.0,
				models.FieldPrice:        800000.0,
			},
			missing: []string{"title"},
		},
		{
			name: "nil value counts as missing",
			fields: models.Fields{
				models.FieldTitle:        "Loft",
				models.FieldPropertyType: "Apartment",
				models.FieldCity:         nil,
				models.FieldArea:         60.0,
				models.FieldPrice:        300000.0,
			},
			missing: []string{"city"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Validate(tt.fields)
			if !reflect.DeepEqual(got, tt.missing) {
				t.Errorf("Validate() missing = %v, want %v", got, tt.missing)
			}
		})
	}
}

func TestMergeFilters(t *testing.T) {
	base := models.Filters{"city": "Boston", "min_price": 100000.0}
	update := models.Filters{"min_price": 200000.0, "rooms": 3}

	got := MergeFilters(base, update)

	if got["min_price"] != 200000.0 {
		t.Errorf("min_price = %v, want later value to win", got["min_price"])
	}
	if got["city"] != "Boston" || got["rooms"] != 3 {
		t.Errorf("MergeFilters() = %v, want union of both maps", got)
	}
}
