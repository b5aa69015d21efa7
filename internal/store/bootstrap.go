package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Bootstrap creates the system tables if they are missing and seeds the
// rule version counter. Safe to run on every startup.
func (s *Store) Bootstrap(ctx context.Context) error {
	exists, err := s.Dialect.TableExists(ctx, s.DB, "formula_rules")
	if err != nil {
		return fmt.Errorf("check schema: %w", err)
	}
	if !exists {
		slog.Info("initializing schema", "driver", s.driver)
	}
	if _, err := s.DB.ExecContext(ctx, s.Dialect.SystemTablesSQL()); err != nil {
		return fmt.Errorf("bootstrap system tables: %w", err)
	}
	return nil
}

// SeedAdminUser creates the configured admin account when the user table
// is empty. Existing installations are left untouched.
func (s *Store) SeedAdminUser(ctx context.Context, email, password string) error {
	row, err := QueryRow(ctx, s.DB, "SELECT COUNT(*) AS n FROM _users")
	if err != nil {
		return err
	}
	if n, ok := row["n"].(int64); ok && n > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	pb := s.Dialect.NewParamBuilder()
	sqlStr := fmt.Sprintf(
		"INSERT INTO _users (id, email, password_hash, roles) VALUES (%s, %s, %s, %s)",
		pb.Add(uuid.New().String()),
		pb.Add(email),
		pb.Add(string(hash)),
		pb.Add(s.Dialect.ArrayParam([]string{"admin"})),
	)
	if _, err := Exec(ctx, s.DB, sqlStr, pb.Params()...); err != nil {
		return MapError(s.Dialect, err)
	}

	slog.Warn("default admin user created, change the password immediately", "email", email)
	return nil
}
