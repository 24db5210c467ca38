package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/velta-dev/afisha-bot/internal/domain"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	UpdateCity(ctx context.Context, telegramID int64, city string) error
	UpdateRole(ctx context.Context, telegramID int64, role domain.Role) error
	ListActive(ctx context.Context, city string) ([]*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)
}

const userColumns = `id, telegram_id, username, first_name, last_name, role, COALESCE(city, ''), is_active, created_at`

type userRepository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewUserRepository creates a new SQL-backed user repository.
func NewUserRepository(db *sql.DB, log *slog.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log,
	}
}

// FindByTelegramID retrieves a user by their Telegram identifier.
func (r *userRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

	return r.scanOne(ctx, query, telegramID)
}

// FindByID retrieves a user by internal id.
func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	return r.scanOne(ctx, query, id)
}

// Create persists a new user record and fills in the generated id.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
		INSERT INTO users (telegram_id, username, first_name, last_name, role, city, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
		RETURNING id
	`

	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.TelegramID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Role,
		user.City,
		user.IsActive,
		user.CreatedAt,
	).Scan(&user.ID); err != nil {
		if r.log != nil {
			r.log.Error("failed to create user", slog.Int64("telegram_id", user.TelegramID), slog.Any("error", err))
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// UpdateCity stores the user's chosen city.
func (r *userRepository) UpdateCity(ctx context.Context, telegramID int64, city string) error {
	const query = `UPDATE users SET city = NULLIF($2, '') WHERE telegram_id = $1`

	res, err := r.db.ExecContext(ctx, query, telegramID, city)
	if err != nil {
		return fmt.Errorf("update user city: %w", err)
	}

	return requireRow(res)
}

// UpdateRole changes the user's permission level.
func (r *userRepository) UpdateRole(ctx context.Context, telegramID int64, role domain.Role) error {
	const query = `UPDATE users SET role = $2 WHERE telegram_id = $1`

	res, err := r.db.ExecContext(ctx, query, telegramID, role)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}

	return requireRow(res)
}

// ListActive returns active users, optionally filtered to one city.
func (r *userRepository) ListActive(ctx context.Context, city string) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE is_active`
	args := []interface{}{}
	if city != "" {
		query += ` AND city = $1`
		args = append(args, city)
	}
	query += ` ORDER BY id`

	return r.scanMany(ctx, query, args...)
}

// ListByRole returns users holding the given role, ordered by creation time.
func (r *userRepository) ListByRole(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY created_at`

	return r.scanMany(ctx, query, role)
}

func (r *userRepository) scanOne(ctx context.Context, query string, args ...interface{}) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, query, args...)

	var user domain.User
	if err := scanUser(row.Scan, &user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}

		if r.log != nil {
			r.log.Error("failed to fetch user", slog.Any("error", err))
		}
		return nil, fmt.Errorf("select user: %w", err)
	}

	return &user, nil
}

func (r *userRepository) scanMany(ctx context.Context, query string, args ...interface{}) ([]*domain.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var user domain.User
		if err := scanUser(rows.Scan, &user); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

func scanUser(scan func(...interface{}) error, user *domain.User) error {
	return scan(
		&user.ID,
		&user.TelegramID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.City,
		&user.IsActive,
		&user.CreatedAt,
	)
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
