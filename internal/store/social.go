// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"alcoholdb/internal/catalog"
	"alcoholdb/internal/models"
)

// SocialStore handles follows, personal lists and search history. Every
// write that changes a relationship also adjusts the mirrored counter on
// users in the same transaction.
type SocialStore struct {
	db *sql.DB
}

// NewSocialStore creates a new SocialStore with the given database connection.
func NewSocialStore(db *sql.DB) *SocialStore {
	return &SocialStore{db: db}
}

// Follow makes follower follow followee. Returns false if it already did.
func (s *SocialStore) Follow(ctx context.Context, follower, followee uuid.UUID) (bool, error) {
	var created bool
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO follows (follower_id, followee_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, follower, followee)
		if err != nil {
			return fmt.Errorf("insert follow: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		created = true
		return adjustFollowCounters(ctx, tx, follower, followee, 1)
	})
	return created, err
}

// Unfollow removes the relationship. Returns false if there was none.
func (s *SocialStore) Unfollow(ctx context.Context, follower, followee uuid.UUID) (bool, error) {
	var removed bool
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`, follower, followee)
		if err != nil {
			return fmt.Errorf("delete follow: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		removed = true
		return adjustFollowCounters(ctx, tx, follower, followee, -1)
	})
	return removed, err
}

func adjustFollowCounters(ctx context.Context, tx *sql.Tx, follower, followee uuid.UUID, by int) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET following_count = following_count + $1 WHERE id = $2`, by, follower); err != nil {
		return fmt.Errorf("adjust following count: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET followers_count = followers_count + $1 WHERE id = $2`, by, followee); err != nil {
		return fmt.Errorf("adjust followers count: %w", err)
	}
	return nil
}

// Followers returns a page of the users following userID.
func (s *SocialStore) Followers(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.PublicUser, int, error) {
	return s.followPage(ctx, "followee_id", "follower_id", userID, limit, offset)
}

// Following returns a page of the users userID follows.
func (s *SocialStore) Following(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.PublicUser, int, error) {
	return s.followPage(ctx, "follower_id", "followee_id", userID, limit, offset)
}

func (s *SocialStore) followPage(ctx context.Context, match, other string, userID uuid.UUID, limit, offset int) ([]models.PublicUser, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE `+match+` = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count follows: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT u.id, u.display_name, u.bio, u.rate_count, u.avg_rating, u.followers_count, u.following_count
		FROM follows f JOIN users u ON u.id = f.`+other+`
		WHERE f.`+match+` = $1
		ORDER BY f.created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list follows: %w", err)
	}
	defer rows.Close()

	var out []models.PublicUser
	for rows.Next() {
		var p models.PublicUser
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.Bio, &p.RateCount, &p.AvgRating,
			&p.FollowersCount, &p.FollowingCount); err != nil {
			return nil, 0, fmt.Errorf("scan follow: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// RemoveFollows deletes every follow edge touching userID and corrects the
// counters of the users on the other end.
func (s *SocialStore) RemoveFollows(ctx context.Context, userID uuid.UUID) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			WITH del AS (DELETE FROM follows WHERE follower_id = $1 RETURNING followee_id)
			UPDATE users SET followers_count = followers_count - 1
			WHERE id IN (SELECT followee_id FROM del)
		`, userID); err != nil {
			return fmt.Errorf("remove outgoing follows: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			WITH del AS (DELETE FROM follows WHERE followee_id = $1 RETURNING follower_id)
			UPDATE users SET following_count = following_count - 1
			WHERE id IN (SELECT follower_id FROM del)
		`, userID); err != nil {
			return fmt.Errorf("remove incoming follows: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET followers_count = 0, following_count = 0 WHERE id = $1`, userID); err != nil {
			return fmt.Errorf("reset follow counters: %w", err)
		}
		return nil
	})
}

// AddToList puts an alcohol on one of the user's lists. The name is kept
// alongside so listings need no catalogue lookup. Returns false if the
// alcohol was already on the list.
func (s *SocialStore) AddToList(ctx context.Context, userID uuid.UUID, list models.ListKind, alcoholID uuid.UUID, name string) (bool, error) {
	var added bool
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO list_entries (user_id, alcohol_id, list, name) VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING
		`, userID, alcoholID, list, name)
		if err != nil {
			return fmt.Errorf("insert list entry: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		added = true
		col := list.CounterColumn()
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET `+col+` = `+col+` + 1 WHERE id = $1`, userID); err != nil {
			return fmt.Errorf("increment %s: %w", col, err)
		}
		return nil
	})
	return added, err
}

// RemoveFromList takes an alcohol off a list. Returns false if it was not there.
func (s *SocialStore) RemoveFromList(ctx context.Context, userID uuid.UUID, list models.ListKind, alcoholID uuid.UUID) (bool, error) {
	var removed bool
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM list_entries WHERE user_id = $1 AND list = $2 AND alcohol_id = $3
		`, userID, list, alcoholID)
		if err != nil {
			return fmt.Errorf("delete list entry: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		removed = true
		col := list.CounterColumn()
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET `+col+` = `+col+` - 1 WHERE id = $1`, userID); err != nil {
			return fmt.Errorf("decrement %s: %w", col, err)
		}
		return nil
	})
	return removed, err
}

// ListEntries returns a page of one of the user's lists, newest first.
func (s *SocialStore) ListEntries(ctx context.Context, userID uuid.UUID, list models.ListKind, limit, offset int) ([]models.ListEntry, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM list_entries WHERE user_id = $1 AND list = $2`, userID, list,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count list entries: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT alcohol_id, name, added_at FROM list_entries
		WHERE user_id = $1 AND list = $2
		ORDER BY added_at DESC LIMIT $3 OFFSET $4
	`, userID, list, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var out []models.ListEntry
	for rows.Next() {
		var e models.ListEntry
		if err := rows.Scan(&e.AlcoholID, &e.Name, &e.AddedAt); err != nil {
			return nil, 0, fmt.Errorf("scan list entry: %w", err)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// ClearLists empties both of the user's lists and zeroes their counters.
func (s *SocialStore) ClearLists(ctx context.Context, userID uuid.UUID) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM list_entries WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("clear lists: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM search_history WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("clear search history: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET wishlist_count = 0, favourites_count = 0 WHERE id = $1`, userID); err != nil {
			return fmt.Errorf("reset list counters: %w", err)
		}
		return nil
	})
}

// PurgeAlcohol removes every relational row that references an alcohol:
// list entries (with their owners' counters), tag attachments and error
// reports.
func (s *SocialStore) PurgeAlcohol(ctx context.Context, alcoholID uuid.UUID) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			WITH del AS (DELETE FROM list_entries WHERE alcohol_id = $1 RETURNING user_id, list)
			UPDATE users u SET
				wishlist_count = wishlist_count - (SELECT COUNT(*) FROM del WHERE del.user_id = u.id AND del.list = 'wishlist'),
				favourites_count = favourites_count - (SELECT COUNT(*) FROM del WHERE del.user_id = u.id AND del.list = 'favourites')
			WHERE u.id IN (SELECT user_id FROM del)
		`, alcoholID); err != nil {
			return fmt.Errorf("purge list entries: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM alcohol_tags WHERE alcohol_id = $1`, alcoholID); err != nil {
			return fmt.Errorf("purge alcohol tags: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM reported_errors WHERE alcohol_id = $1`, alcoholID); err != nil {
			return fmt.Errorf("purge reported errors: %w", err)
		}
		return nil
	})
}

// RecordSearch moves phrase to the top of the user's history and trims the
// history to SearchHistoryLimit entries.
func (s *SocialStore) RecordSearch(ctx context.Context, userID uuid.UUID, phrase string) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO search_history (user_id, phrase) VALUES ($1, $2)
			ON CONFLICT (user_id, phrase) DO UPDATE SET searched_at = NOW()
		`, userID, phrase); err != nil {
			return fmt.Errorf("record search: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM search_history WHERE user_id = $1 AND phrase NOT IN (
				SELECT phrase FROM search_history WHERE user_id = $1
				ORDER BY searched_at DESC LIMIT $2
			)
		`, userID, models.SearchHistoryLimit); err != nil {
			return fmt.Errorf("trim search history: %w", err)
		}
		return nil
	})
}

// SearchHistory returns the user's recent phrases, newest first.
func (s *SocialStore) SearchHistory(ctx context.Context, userID uuid.UUID) ([]models.SearchEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT phrase, searched_at FROM search_history
		WHERE user_id = $1 ORDER BY searched_at DESC LIMIT $2
	`, userID, models.SearchHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("search history: %w", err)
	}
	defer rows.Close()

	out := []models.SearchEntry{}
	for rows.Next() {
		var e models.SearchEntry
		if err := rows.Scan(&e.Phrase, &e.SearchedAt); err != nil {
			return nil, fmt.Errorf("scan search entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ClearSearchHistory deletes the user's search history.
func (s *SocialStore) ClearSearchHistory(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM search_history WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear search history: %w", err)
	}
	return nil
}

var _ catalog.AlcoholDependents = (*SocialStore)(nil)
