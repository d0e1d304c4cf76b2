package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yuchenf/nightbite/models"
)

type Pg struct {
	db *gorm.DB
}

func NewDecisionPg(connStr string) (*Pg, error) {
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, err
	}

	return &Pg{db: db}, nil
}

// CreateDecision inserts the decision row and returns its generated id.
// This insert is the only fatal persistence step in a request.
func (s *Pg) CreateDecision(ctx context.Context, decision *models.Decision) (uint64, error) {
	if err := s.db.WithContext(ctx).Create(decision).Error; err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return decision.ID, nil
}

// CreateRecommendations bulk-inserts the child rows for a decision.
func (s *Pg) CreateRecommendations(ctx context.Context, recs []models.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Create(&recs).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			slog.Error("recommendation insert rejected", "code", pgErr.Code, "message", pgErr.Message)
		}

		return fmt.Errorf("failed to create recommendations: %w", err)
	}

	return nil
}

// ListDecisions returns the most recent decisions, newest first.
func (s *Pg) ListDecisions(ctx context.Context, limit int) ([]models.Decision, error) {
	if limit < 1 {
		limit = 50
	}

	var decisions []models.Decision
	if err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&decisions).Error; err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}

	return decisions, nil
}

func (s *Pg) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.PingContext(ctx)
}
