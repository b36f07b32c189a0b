package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BTreeMap/EstatePipe/internal/models"
)

// sqlListings implements ListingStore against database/sql. The
// SQLite and Postgres stores embed it and differ only in how they
// open the connection and in placeholder syntax.
type sqlListings struct {
	db *sql.DB
	d  dialect
}

const listingOrder = " ORDER BY created_at DESC, id DESC"

func (s *sqlListings) Create(ctx context.Context, ownerID string, fields models.Fields) (int64, error) {
	l := listingFromFields(ownerID, fields, time.Now())

	cols := []string{
		"owner_id", "title", "property_type", "city", "neighborhood",
		"address", "area", "price", "rooms", "floor", "year_built",
		"parking", "elevator", "storage", "description", "created_at", "updated_at",
	}
	args := []any{
		l.OwnerID, l.Title, l.PropertyType, l.City, nullIfEmpty(l.Neighborhood),
		nullIfEmpty(l.Address), l.Area, l.Price, nullIfZero(l.Rooms), nullIfZero(l.Floor), nullIfZero(l.YearBuilt),
		l.Parking, l.Elevator, l.Storage, nullIfEmpty(l.Description), l.CreatedAt, l.UpdatedAt,
	}
	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = s.d.placeholder(i + 1)
	}
	query := fmt.Sprintf("INSERT INTO listings (%s) VALUES (%s)",
		strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	if s.d == dialectPostgres {
		var id int64
		if err := s.db.QueryRowContext(ctx, query+" RETURNING id", args...).Scan(&id); err != nil {
			slog.Error("store.Create failed", "error", err, "owner", ownerID)
			return 0, fmt.Errorf("failed to insert listing: %w", err)
		}
		slog.Debug("store.Create succeeded", "id", id, "owner", ownerID)
		return id, nil
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Error("store.Create failed", "error", err, "owner", ownerID)
		return 0, fmt.Errorf("failed to insert listing: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read inserted listing ID: %w", err)
	}
	slog.Debug("store.Create succeeded", "id", id, "owner", ownerID)
	return id, nil
}

func (s *sqlListings) Get(ctx context.Context, id int64) (*models.Listing, error) {
	query := fmt.Sprintf("SELECT %s FROM listings WHERE id = %s", listingColumns, s.d.placeholder(1))
	row := s.db.QueryRowContext(ctx, query, id)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		slog.Error("store.Get failed", "error", err, "id", id)
		return nil, fmt.Errorf("failed to get listing %d: %w", id, err)
	}
	return &l, nil
}

func (s *sqlListings) ListByOwner(ctx context.Context, ownerID string) ([]models.Listing, error) {
	query := fmt.Sprintf("SELECT %s FROM listings WHERE owner_id = %s%s LIMIT %d",
		listingColumns, s.d.placeholder(1), listingOrder, DefaultQueryLimit)
	return s.queryListings(ctx, "ListByOwner", query, ownerID)
}

func (s *sqlListings) Search(ctx context.Context, filters models.Filters, ownerID string) ([]models.Listing, error) {
	where, args := buildSearchWhere(s.d, filters, ownerID, 0)
	query := fmt.Sprintf("SELECT %s FROM listings%s%s LIMIT %d",
		listingColumns, where, listingOrder, DefaultQueryLimit)
	return s.queryListings(ctx, "Search", query, args...)
}

func (s *sqlListings) KeywordFilter(ctx context.Context, keyword string) ([]models.Listing, error) {
	cols := []string{"title", "description", "address", "property_type", "city", "neighborhood"}
	clauses := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		clauses[i] = fmt.Sprintf("%s LIKE %s", col, s.d.placeholder(i+1))
		args[i] = "%" + keyword + "%"
	}
	query := fmt.Sprintf("SELECT %s FROM listings WHERE %s%s LIMIT %d",
		listingColumns, strings.Join(clauses, " OR "), listingOrder, DefaultQueryLimit)
	return s.queryListings(ctx, "KeywordFilter", query, args...)
}

func (s *sqlListings) Update(ctx context.Context, id int64, fields models.Fields) (bool, error) {
	var sets []string
	var args []any
	n := 0
	for _, field := range models.CanonicalFieldOrder {
		v, ok := fields[field]
		if !ok {
			continue
		}
		n++
		sets = append(sets, fmt.Sprintf("%s = %s", updatableColumns[field], s.d.placeholder(n)))
		args = append(args, columnValue(field, v))
	}
	n++
	sets = append(sets, fmt.Sprintf("updated_at = %s", s.d.placeholder(n)))
	args = append(args, time.Now().Unix())
	n++
	args = append(args, id)

	query := fmt.Sprintf("UPDATE listings SET %s WHERE id = %s",
		strings.Join(sets, ", "), s.d.placeholder(n))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Error("store.Update failed", "error", err, "id", id)
		return false, fmt.Errorf("failed to update listing %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}
	slog.Debug("store.Update completed", "id", id, "found", affected > 0, "fields", len(fields))
	return affected > 0, nil
}

func (s *sqlListings) Delete(ctx context.Context, id int64, ownerID string) (bool, error) {
	query := fmt.Sprintf("DELETE FROM listings WHERE id = %s", s.d.placeholder(1))
	args := []any{id}
	if ownerID != "" {
		query += fmt.Sprintf(" AND owner_id = %s", s.d.placeholder(2))
		args = append(args, ownerID)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Error("store.Delete failed", "error", err, "id", id)
		return false, fmt.Errorf("failed to delete listing %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read delete result: %w", err)
	}
	return affected > 0, nil
}

func (s *sqlListings) Stats(ctx context.Context) (models.ListingStats, error) {
	var stats models.ListingStats
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM listings").Scan(&stats.Total); err != nil {
		slog.Error("store.Stats count failed", "error", err)
		return stats, fmt.Errorf("failed to count listings: %w", err)
	}
	var avgPrice, avgArea sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, "SELECT AVG(price) FROM listings WHERE price > 0").Scan(&avgPrice); err != nil {
		return stats, fmt.Errorf("failed to average prices: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT AVG(area) FROM listings WHERE area > 0").Scan(&avgArea); err != nil {
		return stats, fmt.Errorf("failed to average areas: %w", err)
	}
	stats.AvgPrice = avgPrice.Float64
	stats.AvgArea = avgArea.Float64
	return stats, nil
}

func (s *sqlListings) Close() error {
	return s.db.Close()
}

func (s *sqlListings) queryListings(ctx context.Context, op, query string, args ...any) ([]models.Listing, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error("store."+op+" query failed", "error", err)
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			slog.Error("store."+op+" scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan listing row: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listing rows: %w", err)
	}
	slog.Debug("store."+op+" succeeded", "count", len(listings))
	return listings, nil
}
