package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chrissnell/decoplanner/pkg/dive"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no plan has the requested ID
var ErrNotFound = errors.New("plan not found")

// DefaultListLimit caps List when no limit is given
const DefaultListLimit = 50

// Store reads and writes archived plans
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open gorm connection
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Save archives a plan under name and returns the stored record
func (s *Store) Save(ctx context.Context, name string, plan *dive.Plan) (*ArchivedPlan, error) {
	encoded, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}

	record := &ArchivedPlan{
		ID:          uuid.New(),
		Name:        name,
		Runtime:     plan.Runtime(),
		DecoMinutes: plan.TotalDecoMinutes(),
		MaxDepth:    plan.MaxDepth(),
		CNS:         plan.TotalCNS,
		OTU:         plan.TotalOTU,
		Plan:        string(encoded),
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to archive plan: %w", err)
	}
	return record, nil
}

// Get returns the archived record and its decoded plan
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*ArchivedPlan, *dive.Plan, error) {
	var record ArchivedPlan
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load plan %s: %w", id, err)
	}

	var plan dive.Plan
	if err := json.Unmarshal([]byte(record.Plan), &plan); err != nil {
		return nil, nil, fmt.Errorf("failed to decode plan %s: %w", id, err)
	}
	return &record, &plan, nil
}

// List returns the most recent records, newest first
func (s *Store) List(ctx context.Context, limit int) ([]ArchivedPlan, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var records []ArchivedPlan
	err := s.db.WithContext(ctx).
		Omit("plan").
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return records, nil
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
