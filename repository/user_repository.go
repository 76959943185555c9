package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"AriaFM/model"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (int64, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByApiKey(ctx context.Context, apiKey string) (*model.User, error)
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
}

const userColumns = `id, api_key, username, email, password_hash, encrypted_password,
	public_key, is_admin, is_locked, COALESCE(last_login_at, '1970-01-01'), created_at, updated_at`

// mysqlUserRepository implements UserRepository for MySQL.
type mysqlUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new mysqlUserRepository.
func NewMySQLUserRepository(db *sql.DB) UserRepository {
	return &mysqlUserRepository{db: db}
}

// CreateUser adds a new user to the database.
func (r *mysqlUserRepository) CreateUser(ctx context.Context, user *model.User) (int64, error) {
	query := `INSERT INTO users (api_key, username, email, password_hash, encrypted_password, public_key, is_admin)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		user.ApiKey, user.Username, user.Email, user.PasswordHash,
		user.EncryptedPassword, user.PublicKey, user.IsAdmin)
	if err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			return 0, ErrDuplicateUser
		}
		return 0, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for user: %w", err)
	}
	return id, nil
}

func (r *mysqlUserRepository) scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.ApiKey, &user.Username, &user.Email,
		&user.PasswordHash, &user.EncryptedPassword, &user.PublicKey,
		&user.IsAdmin, &user.IsLocked, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (r *mysqlUserRepository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetUserByUsername retrieves a user by their username.
func (r *mysqlUserRepository) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE username = ?"
	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

// GetUserByEmail retrieves a user by their email address.
func (r *mysqlUserRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE email = ?"
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetUserByApiKey retrieves a user by their external API key.
func (r *mysqlUserRepository) GetUserByApiKey(ctx context.Context, apiKey string) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE api_key = ?"
	return r.scanUser(r.db.QueryRowContext(ctx, query, apiKey))
}

// UpdateLastLogin stamps the user's last successful login time.
func (r *mysqlUserRepository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	query := "UPDATE users SET last_login_at = ? WHERE id = ?"
	if _, err := r.db.ExecContext(ctx, query, at, userID); err != nil {
		return fmt.Errorf("failed to update last login for user %d: %w", userID, err)
	}
	return nil
}
