package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"alcoholdb/internal/apperr"
	"alcoholdb/internal/catalog"
	"alcoholdb/internal/models"
)

const userColumns = `id, email, password_hash, display_name, bio, role, banned,
	rate_count, rate_value, avg_rating,
	followers_count, following_count, favourites_count, wishlist_count,
	created_at, updated_at`

// UserStore handles all user-related database operations.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a new UserStore with the given database connection.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Bio, &u.Role, &u.Banned,
		&u.RateCount, &u.RateValue, &u.AvgRating,
		&u.FollowersCount, &u.FollowingCount, &u.FavouritesCount, &u.WishlistCount,
		&u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

// FindByEmail retrieves a user by their email address. Returns nil if not found.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

// FindByID retrieves a user by their UUID. Returns nil if not found.
func (s *UserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// ListUsers returns a page of users ordered by creation date, plus the total.
func (s *UserStore) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

// Create inserts a new user with a bcrypt-hashed password. A taken email
// is a conflict.
func (s *UserStore) Create(ctx context.Context, email, password, displayName string, role models.Role) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := scanUser(s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, display_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING `+userColumns,
		email, string(hash), displayName, role))
	if isUniqueViolation(err) {
		return nil, apperr.Conflict("email %s is already registered", email)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// UpdateProfile changes the editable profile fields.
func (s *UserStore) UpdateProfile(ctx context.Context, id uuid.UUID, displayName, bio string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `
		UPDATE users SET display_name = $1, bio = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+userColumns,
		displayName, bio, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

// SetPassword replaces the user's password hash.
func (s *UserStore) SetPassword(ctx context.Context, id uuid.UUID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		string(hash), id); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}

// SetBanned bans or unbans a user. Returns false if the user does not exist.
func (s *UserStore) SetBanned(ctx context.Context, id uuid.UUID, banned bool) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET banned = $1, updated_at = NOW() WHERE id = $2`, banned, id)
	if err != nil {
		return false, fmt.Errorf("set banned: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ApplyRating shifts the user's rating aggregate by d in one statement.
// Returns nil if the user does not exist.
func (s *UserStore) ApplyRating(ctx context.Context, id uuid.UUID, d models.RatingDelta) (*models.RatingStats, error) {
	return applyRating(ctx, s.db, "users", id, d)
}

// DeleteUser removes a user by ID. Returns false if no row was deleted.
func (s *UserStore) DeleteUser(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete user: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// CheckPassword verifies a plaintext password against the user's stored hash.
func (s *UserStore) CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// applyRating is shared by users and alcohols; both tables carry the same
// aggregate columns. The average is recomputed from the post-update count
// and value in the same statement.
func applyRating(ctx context.Context, q querier, table string, id uuid.UUID, d models.RatingDelta) (*models.RatingStats, error) {
	st := &models.RatingStats{}
	err := q.QueryRowContext(ctx, `
		UPDATE `+table+` SET
			rate_count = rate_count + $1,
			rate_value = rate_value + $2,
			avg_rating = CASE WHEN rate_count + $1 < 1 THEN 0
				ELSE (rate_value + $2)::float8 / (rate_count + $1) END
		WHERE id = $3
		RETURNING rate_count, rate_value, avg_rating
	`, d.Count, d.Value, id).Scan(&st.Count, &st.Value, &st.Avg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("apply rating to %s: %w", table, err)
	}
	return st, nil
}

// AccountCleanup removes the rows that reference a user outside reviews.
// It pairs the social store (follows, lists) with the user store (the row
// itself).
type AccountCleanup struct {
	*SocialStore
	*UserStore
}

var _ catalog.UserDependents = AccountCleanup{}
