package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kimbucha/roomiesBolt-sub000/internal/models"
	"github.com/kimbucha/roomiesBolt-sub000/internal/storage"
)

// GetDiscovery retrieves the discovery record for id.
func (s *SQLiteStore) GetDiscovery(ctx context.Context, id string) (*models.DiscoveryRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		"SELECT data FROM discovery_profiles WHERE id = ?",
		id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get discovery profile: %w", err)
	}
	return decodeDiscovery(data)
}

// PutDiscovery inserts or replaces the discovery record keyed by rec.ID.
func (s *SQLiteStore) PutDiscovery(ctx context.Context, rec *models.DiscoveryRecord) error {
	if rec.ID == "" {
		return errors.New("discovery profile has no id")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode discovery profile: %w", err)
	}

	query := `
		INSERT INTO discovery_profiles (id, name, user_role, has_place, room_type, data, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			user_role = excluded.user_role,
			has_place = excluded.has_place,
			room_type = excluded.room_type,
			data = excluded.data,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Name,
		string(rec.UserRole),
		rec.HasPlace,
		rec.RoomType,
		string(data),
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save discovery profile: %w", err)
	}
	return nil
}

// ListDiscovery returns discovery records, most recently updated first.
func (s *SQLiteStore) ListDiscovery(ctx context.Context, opts storage.ListOptions) ([]models.DiscoveryRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM discovery_profiles
		WHERE id != ?
		ORDER BY updated_at DESC, id ASC
		LIMIT ? OFFSET ?
	`, opts.ExcludeID, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list discovery profiles: %w", err)
	}
	defer rows.Close()

	recs := []models.DiscoveryRecord{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan discovery profile: %w", err)
		}
		rec, err := decodeDiscovery(data)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating discovery profiles: %w", err)
	}
	return recs, nil
}

func decodeDiscovery(data string) (*models.DiscoveryRecord, error) {
	rec := &models.DiscoveryRecord{}
	if err := json.Unmarshal([]byte(data), rec); err != nil {
		return nil, fmt.Errorf("failed to decode discovery profile: %w", err)
	}
	return rec, nil
}
