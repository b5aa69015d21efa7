package instrument

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"bazi-backend/internal/store"
)

// CleanupOldEvents deletes events older than retentionDays from the _events table.
func CleanupOldEvents(ctx context.Context, db *sql.DB, dialect store.Dialect, retentionDays int) {
	pb := dialect.NewParamBuilder()
	whereExpr := dialect.IntervalDeleteExpr("created_at", pb, fmt.Sprintf("%d", retentionDays))
	sqlStr := fmt.Sprintf("DELETE FROM _events WHERE %s", whereExpr)
	result, err := db.ExecContext(ctx, sqlStr, pb.Params()...)
	if err != nil {
		slog.Error("event cleanup", "error", err)
		return
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		slog.Error("event cleanup rows affected", "error", err)
		return
	}
	if rowsAffected > 0 {
		slog.Info("event cleanup", "deleted", rowsAffected)
	}
}

// CleanupScheduler deletes expired events on an hourly ticker.
type CleanupScheduler struct {
	db            *sql.DB
	dialect       store.Dialect
	retentionDays int
	ticker        *time.Ticker
	done          chan struct{}
}

// NewCleanupScheduler creates a scheduler that enforces the retention window.
func NewCleanupScheduler(db *sql.DB, dialect store.Dialect, retentionDays int) *CleanupScheduler {
	return &CleanupScheduler{db: db, dialect: dialect, retentionDays: retentionDays}
}

// Start begins the background cleanup ticker.
func (s *CleanupScheduler) Start() {
	s.done = make(chan struct{})
	s.ticker = time.NewTicker(1 * time.Hour)
	go s.run()
	slog.Info("event cleanup scheduler started", "retention_days", s.retentionDays)
}

// Stop halts the background ticker.
func (s *CleanupScheduler) Stop() {
	if s.ticker != nil {
		s.ticker.Stop()
	}
	if s.done != nil {
		close(s.done)
	}
}

func (s *CleanupScheduler) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.ticker.C:
			CleanupOldEvents(context.Background(), s.db, s.dialect, s.retentionDays)
		}
	}
}
