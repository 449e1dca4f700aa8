package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"solo/models"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Authenticate on an unknown email or a
// wrong password
var ErrInvalidCredentials = errors.New("invalid credentials")

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (db *DB) getUser(ctx context.Context, field string, value interface{}) (*models.User, error) {
	sb := db.flavor.NewSelectBuilder()
	sb.Select("id", "name", "email", "password", "role").From("users")
	sb.Where(sb.Equal(field, value))
	sb.Limit(1)

	query, args := sb.Build()

	var user models.User
	err := db.db.QueryRowContext(ctx, query, args...).Scan(&user.Id, &user.Name, &user.Email, &user.Password, &user.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	return &user, nil
}

// GetUserByEmail looks a user up by email, ignoring case and surrounding spaces
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.getUser(ctx, "email", normalizeEmail(email))
}

func (db *DB) GetAdmin(ctx context.Context) (*models.User, error) {
	return db.getUser(ctx, "role", models.AdminRole)
}

func (db *DB) IsAdminEmail(ctx context.Context, email string) (bool, error) {
	user, err := db.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return user.IsAdmin(), nil
}

func (db *DB) CountUsers(ctx context.Context) (int, error) {
	sb := db.flavor.NewSelectBuilder()
	sb.Select("COUNT(*)").From("users")

	query, args := sb.Build()

	var count int
	if err := db.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("query error: %w", err)
	}
	return count, nil
}

// CreateUser stores a user with a bcrypt hash of password and returns its id
func (db *DB) CreateUser(ctx context.Context, user models.User, password string) (string, error) {
	user.Email = normalizeEmail(user.Email)
	if user.Email == "" || strings.TrimSpace(user.Name) == "" {
		return "", errors.New("user name and email are required")
	}
	if password == "" {
		return "", errors.New("password is required")
	}
	if user.Role == "" {
		user.Role = models.DefaultRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash error: %w", err)
	}

	user.Id = NewId()

	ib := db.flavor.NewInsertBuilder()
	ib.InsertInto("users").Cols("id", "name", "email", "password", "role").
		Values(user.Id, user.Name, user.Email, string(hash), user.Role)

	query, args := ib.Build()
	if _, err := db.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert error: %w", err)
	}

	log.WithFields(log.Fields{
		"id":    user.Id,
		"email": user.Email,
		"role":  user.Role,
	}).Info("Created user")

	return user.Id, nil
}

// Authenticate returns the user when password matches the stored hash
func (db *DB) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := db.GetUserByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
