// In-memory listing store used by tests and DSN-less runs.
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BTreeMap/EstatePipe/internal/models"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	listings map[int64]models.Listing
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{listings: make(map[int64]models.Listing)}
}

func (s *InMemoryStore) Create(ctx context.Context, ownerID string, fields models.Fields) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	l := listingFromFields(ownerID, fields, time.Now())
	l.ID = s.nextID
	s.listings[l.ID] = l
	return l.ID, nil
}

func (s *InMemoryStore) Get(ctx context.Context, id int64) (*models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.listings[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (s *InMemoryStore) ListByOwner(ctx context.Context, ownerID string) ([]models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Listing
	for _, l := range s.listings {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	return capResults(sortRecentFirst(out)), nil
}

func (s *InMemoryStore) Search(ctx context.Context, filters models.Filters, ownerID string) ([]models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Listing
	for _, l := range s.listings {
		if ownerID != "" && l.OwnerID != ownerID {
			continue
		}
		if matchesFilters(l, filters) {
			out = append(out, l)
		}
	}
	return capResults(sortRecentFirst(out)), nil
}

func (s *InMemoryStore) KeywordFilter(ctx context.Context, keyword string) ([]models.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	kw := strings.ToLower(keyword)
	var out []models.Listing
	for _, l := range s.listings {
		haystacks := []string{l.Title, l.Description, l.Address, l.PropertyType, l.City, l.Neighborhood}
		for _, h := range haystacks {
			if h != "" && strings.Contains(strings.ToLower(h), kw) {
				out = append(out, l)
				break
			}
		}
	}
	return capResults(sortRecentFirst(out)), nil
}

func (s *InMemoryStore) Update(ctx context.Context, id int64, fields models.Fields) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok {
		return false, nil
	}
	applyFields(&l, fields)
	l.UpdatedAt = time.Now().Unix()
	s.listings[id] = l
	return true, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id int64, ownerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.listings[id]
	if !ok {
		return false, nil
	}
	if ownerID != "" && l.OwnerID != ownerID {
		return false, nil
	}
	delete(s.listings, id)
	return true, nil
}

func (s *InMemoryStore) Stats(ctx context.Context) (models.ListingStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats models.ListingStats
	var priceSum, areaSum float64
	var priceN, areaN int
	for _, l := range s.listings {
		stats.Total++
		if l.Price > 0 {
			priceSum += l.Price
			priceN++
		}
		if l.Area > 0 {
			areaSum += l.Area
			areaN++
		}
	}
	if priceN > 0 {
		stats.AvgPrice = priceSum / float64(priceN)
	}
	if areaN > 0 {
		stats.AvgArea = areaSum / float64(areaN)
	}
	return stats, nil
}

func (s *InMemoryStore) Close() error { return nil }

func sortRecentFirst(listings []models.Listing) []models.Listing {
	sort.Slice(listings, func(i, j int) bool {
		if listings[i].CreatedAt != listings[j].CreatedAt {
			return listings[i].CreatedAt > listings[j].CreatedAt
		}
		return listings[i].ID > listings[j].ID
	})
	return listings
}

func capResults(listings []models.Listing) []models.Listing {
	if len(listings) > DefaultQueryLimit {
		return listings[:DefaultQueryLimit]
	}
	return listings
}

func matchesFilters(l models.Listing, filters models.Filters) bool {
	textFields := map[string]string{
		"property_type": l.PropertyType,
		"city":          l.City,
		"neighborhood":  l.Neighborhood,
	}
	for key, have := range textFields {
		if want, ok := filters[key].(string); ok && want != "" {
			if !strings.Contains(strings.ToLower(have), strings.ToLower(want)) {
				return false
			}
		}
	}
	if v, ok := toFloatArg(filters["min_area"]); ok && l.Area < v {
		return false
	}
	if v, ok := toFloatArg(filters["max_area"]); ok && l.Area > v {
		return false
	}
	if v, ok := toFloatArg(filters["min_price"]); ok && l.Price < v {
		return false
	}
	if v, ok := toFloatArg(filters["max_price"]); ok && l.Price > v {
		return false
	}
	if v, ok := toIntArg(filters["rooms"]); ok && l.Rooms != v {
		return false
	}
	if v, ok := filters["parking"].(bool); ok && l.Parking != v {
		return false
	}
	if v, ok := filters["elevator"].(bool); ok && l.Elevator != v {
		return false
	}
	return true
}

// applyFields mutates a listing with coerced field values, mirroring
// the UPDATE column mapping of the SQL backends.
func applyFields(l *models.Listing, fields models.Fields) {
	for field, v := range fields {
		switch field {
		case models.FieldTitle:
			l.Title, _ = v.(string)
		case models.FieldPropertyType:
			l.PropertyType, _ = v.(string)
		case models.FieldCity:
			l.City, _ = v.(string)
		case models.FieldNeighborhood:
			l.Neighborhood, _ = v.(string)
		case models.FieldAddress:
			l.Address, _ = v.(string)
		case models.FieldDescription:
			l.Description, _ = v.(string)
		case models.FieldArea:
			l.Area = fieldFloat(fields, field)
		case models.FieldPrice:
			l.Price = fieldFloat(fields, field)
		case models.FieldRooms:
			l.Rooms = fieldInt(fields, field)
		case models.FieldFloor:
			l.Floor = fieldInt(fields, field)
		case models.FieldYearBuilt:
			l.YearBuilt = fieldInt(fields, field)
		case models.FieldParking:
			l.Parking = fieldBool(fields, field)
		case models.FieldElevator:
			l.Elevator = fieldBool(fields, field)
		case models.FieldStorage:
			l.Storage = fieldBool(fields, field)
		}
	}
}
