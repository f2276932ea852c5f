// Package registry persists Telegram user to company registrations in
// SQLite. The pipeline reads it to decide where an entry should land.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rsawant/fieldledger/internal/common"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteRegistry implements the Registry interface using SQLite.
type SQLiteRegistry struct {
	db     *sql.DB
	dbPath string
}

// User is a registered Telegram user.
type User struct {
	RegisteredAt time.Time
	Name         string
	Company      string
	Role         string
	UserID       int64
}

// NewSQLiteRegistry creates a new SQLite registry instance.
func NewSQLiteRegistry(dbPath string) (*SQLiteRegistry, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("dbPath cannot be empty")
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	r := &SQLiteRegistry{db: db, dbPath: dbPath}
	if err := r.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return r, nil
}

// Close closes the database connection.
func (r *SQLiteRegistry) Close() error {
	return r.db.Close()
}

func (r *SQLiteRegistry) migrate() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			user_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			company TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			registered_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`CREATE INDEX IF NOT EXISTS idx_users_company ON users(company)`)
	return err
}

// Register adds a new user. Registering an existing user ID fails with
// ErrDuplicateEntry.
func (r *SQLiteRegistry) Register(ctx context.Context, userID int64, name, company string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if strings.TrimSpace(company) == "" {
		return fmt.Errorf("company cannot be empty")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (user_id, name, company) VALUES (?, ?, ?)`,
		userID, name, company)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("user %d: %w", userID, common.ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}

// IsRegistered reports whether a user has a company registration.
func (r *SQLiteRegistry) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check registration: %w", err)
	}
	return count > 0, nil
}

// Company returns the user's registered company. ErrNotFound when the
// user is not registered.
func (r *SQLiteRegistry) Company(ctx context.Context, userID int64) (string, error) {
	var company string
	err := r.db.QueryRowContext(ctx,
		`SELECT company FROM users WHERE user_id = ?`, userID).Scan(&company)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("user %d: %w", userID, common.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up company: %w", err)
	}
	return company, nil
}

// SwitchCompany changes a registered user's company.
func (r *SQLiteRegistry) SwitchCompany(ctx context.Context, userID int64, company string) error {
	if strings.TrimSpace(company) == "" {
		return fmt.Errorf("company cannot be empty")
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET company = ? WHERE user_id = ?`, company, userID)
	if err != nil {
		return fmt.Errorf("failed to switch company: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %d: %w", userID, common.ErrNotFound)
	}
	return nil
}

// Get returns the full user record.
func (r *SQLiteRegistry) Get(ctx context.Context, userID int64) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, name, company, role, registered_at FROM users WHERE user_id = ?`,
		userID).Scan(&u.UserID, &u.Name, &u.Company, &u.Role, &u.RegisteredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", userID, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}

// ListByCompany returns all users registered to a company.
func (r *SQLiteRegistry) ListByCompany(ctx context.Context, company string) ([]User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT user_id, name, company, role, registered_at FROM users WHERE company = ? ORDER BY name`,
		company)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.UserID, &u.Name, &u.Company, &u.Role, &u.RegisteredAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
