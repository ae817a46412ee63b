// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"alcoholdb/internal/models"
)

// ReportedErrorStore handles user reports of incorrect catalogue data.
type ReportedErrorStore struct {
	db *sql.DB
}

// NewReportedErrorStore creates a new ReportedErrorStore with the given database connection.
func NewReportedErrorStore(db *sql.DB) *ReportedErrorStore {
	return &ReportedErrorStore{db: db}
}

// Create stores a report.
func (s *ReportedErrorStore) Create(ctx context.Context, userID, alcoholID uuid.UUID, body string) (*models.ReportedError, error) {
	e := &models.ReportedError{}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO reported_errors (user_id, alcohol_id, body) VALUES ($1, $2, $3)
		RETURNING id, user_id, alcohol_id, body, created_at
	`, userID, alcoholID, body).Scan(&e.ID, &e.UserID, &e.AlcoholID, &e.Body, &e.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create reported error: %w", err)
	}
	return e, nil
}

// List returns a page of reports, oldest first, plus the total.
func (s *ReportedErrorStore) List(ctx context.Context, limit, offset int) ([]models.ReportedError, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reported_errors`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reported errors: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, alcohol_id, body, created_at FROM reported_errors
		ORDER BY created_at ASC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reported errors: %w", err)
	}
	defer rows.Close()

	var out []models.ReportedError
	for rows.Next() {
		var e models.ReportedError
		if err := rows.Scan(&e.ID, &e.UserID, &e.AlcoholID, &e.Body, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan reported error: %w", err)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// Delete removes a report. Returns false if not found.
func (s *ReportedErrorStore) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reported_errors WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete reported error: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
