package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/BTreeMap/EstatePipe/internal/models"
)

// listingColumns is the column list shared by every SELECT, in scan
// order.
const listingColumns = "id, owner_id, title, property_type, city, neighborhood, address, area, price, rooms, floor, year_built, parking, elevator, storage, description, created_at, updated_at"

// updatableColumns maps canonical field names to their columns. Field
// names and column names coincide, the map doubles as the allow-list
// for UPDATE statements.
var updatableColumns = map[string]string{
	models.FieldTitle:        "title",
	models.FieldPropertyType: "property_type",
	models.FieldCity:         "city",
	models.FieldNeighborhood: "neighborhood",
	models.FieldAddress:      "address",
	models.FieldArea:         "area",
	models.FieldPrice:        "price",
	models.FieldRooms:        "rooms",
	models.FieldFloor:        "floor",
	models.FieldYearBuilt:    "year_built",
	models.FieldParking:      "parking",
	models.FieldElevator:     "elevator",
	models.FieldStorage:      "storage",
	models.FieldDescription:  "description",
}

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// placeholder renders the n-th bind parameter (1-based) for the
// dialect.
func (d dialect) placeholder(n int) string {
	if d == dialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// listingFromFields builds a full listing row from extracted fields,
// applying the same defaults for absent values on every backend.
func listingFromFields(ownerID string, fields models.Fields, now time.Time) models.Listing {
	ts := now.Unix()
	return models.Listing{
		OwnerID:      ownerID,
		Title:        fieldString(fields, models.FieldTitle, "Untitled Property"),
		PropertyType: fieldString(fields, models.FieldPropertyType, "Apartment"),
		City:         fieldString(fields, models.FieldCity, ""),
		Neighborhood: fieldString(fields, models.FieldNeighborhood, ""),
		Address:      fieldString(fields, models.FieldAddress, ""),
		Area:         fieldFloat(fields, models.FieldArea),
		Price:        fieldFloat(fields, models.FieldPrice),
		Rooms:        fieldInt(fields, models.FieldRooms),
		Floor:        fieldInt(fields, models.FieldFloor),
		YearBuilt:    fieldInt(fields, models.FieldYearBuilt),
		Parking:      fieldBool(fields, models.FieldParking),
		Elevator:     fieldBool(fields, models.FieldElevator),
		Storage:      fieldBool(fields, models.FieldStorage),
		Description:  fieldString(fields, models.FieldDescription, ""),
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
}

func fieldString(f models.Fields, key, def string) string {
	if v, ok := f[key]; ok {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return def
}

func fieldFloat(f models.Fields, key string) float64 {
	switch v := f[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func fieldInt(f models.Fields, key string) int {
	switch v := f[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func fieldBool(f models.Fields, key string) bool {
	if v, ok := f[key].(bool); ok {
		return v
	}
	return false
}

// columnValue converts a coerced field value into a bind argument for
// its column, with nil mapping to NULL for nullable columns and false
// for amenities.
func columnValue(field string, value any) any {
	if models.BooleanFields[field] {
		if b, ok := value.(bool); ok {
			return b
		}
		return false
	}
	if value == nil {
		return nil
	}
	return value
}

// buildSearchWhere translates filter criteria into a WHERE clause.
// Text criteria match as substrings, rooms matches exactly, amenity
// criteria match exactly when present. argOffset is the number of
// bind parameters already consumed by the caller.
func buildSearchWhere(d dialect, filters models.Filters, ownerID string, argOffset int) (string, []any) {
	var clauses []string
	var args []any
	n := argOffset

	add := func(clause string, value any) {
		n++
		clauses = append(clauses, fmt.Sprintf(clause, d.placeholder(n)))
		args = append(args, value)
	}

	if ownerID != "" {
		add("owner_id = %s", ownerID)
	}
	for _, key := range []string{"property_type", "city", "neighborhood"} {
		if v, ok := filters[key].(string); ok && v != "" {
			add(key+" LIKE %s", "%"+v+"%")
		}
	}
	if v, ok := toFloatArg(filters["min_area"]); ok {
		add("area >= %s", v)
	}
	if v, ok := toFloatArg(filters["max_area"]); ok {
		add("area <= %s", v)
	}
	if v, ok := toFloatArg(filters["min_price"]); ok {
		add("price >= %s", v)
	}
	if v, ok := toFloatArg(filters["max_price"]); ok {
		add("price <= %s", v)
	}
	if v, ok := toIntArg(filters["rooms"]); ok {
		add("rooms = %s", v)
	}
	if v, ok := filters["parking"].(bool); ok {
		add("parking = %s", v)
	}
	if v, ok := filters["elevator"].(bool); ok {
		add("elevator = %s", v)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func toFloatArg(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	}
	return 0, false
}

func toIntArg(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	}
	return 0, false
}

// scanListing reads one row produced with listingColumns.
func scanListing(rows interface{ Scan(...any) error }) (models.Listing, error) {
	var l models.Listing
	var neighborhood, address, description sql.NullString
	var rooms, floor, yearBuilt sql.NullInt64

	err := rows.Scan(
		&l.ID, &l.OwnerID, &l.Title, &l.PropertyType, &l.City,
		&neighborhood, &address, &l.Area, &l.Price,
		&rooms, &floor, &yearBuilt,
		&l.Parking, &l.Elevator, &l.Storage,
		&description, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return models.Listing{}, err
	}
	l.Neighborhood = neighborhood.String
	l.Address = address.String
	l.Description = description.String
	l.Rooms = int(rooms.Int64)
	l.Floor = int(floor.Int64)
	l.YearBuilt = int(yearBuilt.Int64)
	return l, nil
}

// nullIfEmpty maps zero values to NULL for nullable columns.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZero(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
