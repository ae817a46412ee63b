// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"alcoholdb/internal/apperr"
	"alcoholdb/internal/catalog"
	"alcoholdb/internal/models"
)

const reviewColumns = `id, user_id, alcohol_id, rating, body, report_count, helpful_count, created_at, updated_at`

// ReviewStore handles reviews, their moderation counters and the banned
// archive.
type ReviewStore struct {
	db *sql.DB
}

// NewReviewStore creates a new ReviewStore with the given database connection.
func NewReviewStore(db *sql.DB) *ReviewStore {
	return &ReviewStore{db: db}
}

func scanReview(row rowScanner) (*models.Review, error) {
	r := &models.Review{}
	err := row.Scan(&r.ID, &r.UserID, &r.AlcoholID, &r.Rating, &r.Body,
		&r.ReportCount, &r.HelpfulCount, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

// CreateReview inserts a review. A second review by the same user for the
// same alcohol is a conflict.
func (s *ReviewStore) CreateReview(ctx context.Context, r *models.Review) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, user_id, alcohol_id, rating, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.ID, r.UserID, r.AlcoholID, r.Rating, r.Body, r.CreatedAt, r.UpdatedAt)
	if isUniqueViolation(err) {
		return apperr.Conflict("you have already reviewed this alcohol")
	}
	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// FindReview retrieves a review by ID. Returns nil if not found.
func (s *ReviewStore) FindReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find review: %w", err)
	}
	return r, nil
}

// UpdateReview saves the rating and body of r.
func (s *ReviewStore) UpdateReview(ctx context.Context, r *models.Review) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE reviews SET rating = $1, body = $2, updated_at = $3 WHERE id = $4
	`, r.Rating, r.Body, r.UpdatedAt, r.ID)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("review")
	}
	return nil
}

// DeleteReview removes a review and returns the deleted row, or nil when
// another request removed it first.
func (s *ReviewStore) DeleteReview(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	r, err := scanReview(s.db.QueryRowContext(ctx,
		`DELETE FROM reviews WHERE id = $1 RETURNING `+reviewColumns, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete review: %w", err)
	}
	return r, nil
}

// ReportReview records userID's report and bumps the counter in one
// statement. Returns false when the user had already reported it.
func (s *ReviewStore) ReportReview(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	return s.markOnce(ctx, "review_reports", "report_count", id, userID)
}

// VoteHelpful records a helpful vote. Returns false on a repeat vote.
func (s *ReviewStore) VoteHelpful(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	return s.markOnce(ctx, "review_helpful_votes", "helpful_count", id, userID)
}

func (s *ReviewStore) markOnce(ctx context.Context, table, counter string, id, userID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		WITH ins AS (
			INSERT INTO `+table+` (review_id, user_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
			RETURNING review_id
		)
		UPDATE reviews SET `+counter+` = `+counter+` + 1
		WHERE id IN (SELECT review_id FROM ins)
	`, id, userID)
	if err != nil {
		return false, fmt.Errorf("mark review in %s: %w", table, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// UnvoteHelpful withdraws a helpful vote. Returns false when there was none.
func (s *ReviewStore) UnvoteHelpful(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		WITH del AS (
			DELETE FROM review_helpful_votes WHERE review_id = $1 AND user_id = $2
			RETURNING review_id
		)
		UPDATE reviews SET helpful_count = helpful_count - 1
		WHERE id IN (SELECT review_id FROM del)
	`, id, userID)
	if err != nil {
		return false, fmt.Errorf("unvote helpful: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// BanReview archives the review in banned_reviews and deletes it in one
// transaction. Returns nil if the review was already gone.
func (s *ReviewStore) BanReview(ctx context.Context, id, bannedBy uuid.UUID, reason string) (*models.Review, error) {
	var removed *models.Review
	err := inTx(ctx, s.db, func(tx *sql.Tx) error {
		r, err := scanReview(tx.QueryRowContext(ctx,
			`DELETE FROM reviews WHERE id = $1 RETURNING `+reviewColumns, id))
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("delete banned review: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO banned_reviews (`+reviewColumns+`, banned_by, reason)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, r.ID, r.UserID, r.AlcoholID, r.Rating, r.Body, r.ReportCount, r.HelpfulCount,
			r.CreatedAt, r.UpdatedAt, bannedBy, reason); err != nil {
			return fmt.Errorf("archive banned review: %w", err)
		}
		removed = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

// ReviewIDsByUser lists the ids of every review written by userID.
func (s *ReviewStore) ReviewIDsByUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM reviews WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("review ids by user: %w", err)
	}
	return collectIDs(rows)
}

// ReviewIDsByAlcohol lists the ids of every review of alcoholID.
func (s *ReviewStore) ReviewIDsByAlcohol(ctx context.Context, alcoholID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM reviews WHERE alcohol_id = $1`, alcoholID)
	if err != nil {
		return nil, fmt.Errorf("review ids by alcohol: %w", err)
	}
	return collectIDs(rows)
}

// WithdrawUserVotes removes every report and helpful vote cast by userID
// and decrements the affected counters.
func (s *ReviewStore) WithdrawUserVotes(ctx context.Context, userID uuid.UUID) error {
	return inTx(ctx, s.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			WITH del AS (DELETE FROM review_reports WHERE user_id = $1 RETURNING review_id)
			UPDATE reviews SET report_count = report_count - 1
			WHERE id IN (SELECT review_id FROM del)
		`, userID); err != nil {
			return fmt.Errorf("withdraw reports: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			WITH del AS (DELETE FROM review_helpful_votes WHERE user_id = $1 RETURNING review_id)
			UPDATE reviews SET helpful_count = helpful_count - 1
			WHERE id IN (SELECT review_id FROM del)
		`, userID); err != nil {
			return fmt.Errorf("withdraw helpful votes: %w", err)
		}
		return nil
	})
}

// ListByAlcohol returns a page of reviews for an alcohol, newest first,
// with the author joined in.
func (s *ReviewStore) ListByAlcohol(ctx context.Context, alcoholID uuid.UUID, limit, offset int) ([]*models.Review, int, error) {
	return s.listWithAuthor(ctx, "r.alcohol_id = $1", alcoholID, limit, offset)
}

// ListByUser returns a page of reviews written by a user, newest first.
func (s *ReviewStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Review, int, error) {
	return s.listWithAuthor(ctx, "r.user_id = $1", userID, limit, offset)
}

// ListReported returns reviews with at least one report, most reported first.
func (s *ReviewStore) ListReported(ctx context.Context, limit, offset int) ([]*models.Review, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews WHERE report_count > 0`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reported reviews: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reviewColumns+` FROM reviews WHERE report_count > 0
		ORDER BY report_count DESC, created_at ASC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reported reviews: %w", err)
	}
	defer rows.Close()

	var out []*models.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, r)
	}
	return out, total, rows.Err()
}

func (s *ReviewStore) listWithAuthor(ctx context.Context, cond string, arg uuid.UUID, limit, offset int) ([]*models.Review, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reviews r WHERE `+cond, arg).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.user_id, r.alcohol_id, r.rating, r.body, r.report_count,
			r.helpful_count, r.created_at, r.updated_at,
			u.display_name, u.bio, u.rate_count, u.avg_rating, u.followers_count, u.following_count
		FROM reviews r JOIN users u ON u.id = r.user_id
		WHERE `+cond+`
		ORDER BY r.created_at DESC LIMIT $2 OFFSET $3
	`, arg, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var out []*models.Review
	for rows.Next() {
		r := &models.Review{Author: &models.PublicUser{}}
		a := r.Author
		if err := rows.Scan(&r.ID, &r.UserID, &r.AlcoholID, &r.Rating, &r.Body,
			&r.ReportCount, &r.HelpfulCount, &r.CreatedAt, &r.UpdatedAt,
			&a.DisplayName, &a.Bio, &a.RateCount, &a.AvgRating, &a.FollowersCount, &a.FollowingCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review: %w", err)
		}
		a.ID = r.UserID
		out = append(out, r)
	}
	return out, total, rows.Err()
}

// ListBanned returns a page of the banned archive, newest ban first.
func (s *ReviewStore) ListBanned(ctx context.Context, limit, offset int) ([]*models.BannedReview, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM banned_reviews`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count banned reviews: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reviewColumns+`, banned_at, banned_by, reason
		FROM banned_reviews ORDER BY banned_at DESC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list banned reviews: %w", err)
	}
	defer rows.Close()

	var out []*models.BannedReview
	for rows.Next() {
		b := &models.BannedReview{}
		if err := rows.Scan(&b.ID, &b.UserID, &b.AlcoholID, &b.Rating, &b.Body,
			&b.ReportCount, &b.HelpfulCount, &b.CreatedAt, &b.UpdatedAt,
			&b.BannedAt, &b.BannedBy, &b.Reason); err != nil {
			return nil, 0, fmt.Errorf("scan banned review: %w", err)
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

var _ catalog.ReviewStore = (*ReviewStore)(nil)
