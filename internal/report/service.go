// Package report computes year reports from stored programs and archives
// them as immutable JSON blobs.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/letzgrade/letzgrade/internal/storage"
	"github.com/letzgrade/letzgrade/internal/store"
	"github.com/letzgrade/letzgrade/pkg/grades"
)

// Archived is the document written to blob storage for an archived report.
type Archived struct {
	ID        string            `json:"id"`
	ProgramID string            `json:"program_id"`
	CreatedAt time.Time         `json:"created_at"`
	Report    grades.YearReport `json:"report"`
}

// Service builds and archives reports.
type Service struct {
	store  store.Store
	blobs  storage.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a report Service.
func NewService(st store.Store, blobs storage.Client, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, blobs: blobs, logger: logger, now: time.Now}
}

// Build loads the program and computes its report. An empty rule uses the
// rule stored on the program.
func (s *Service) Build(ctx context.Context, programID string, rule grades.YearRule) (*grades.YearReport, error) {
	if rule == "" {
		p, err := s.store.GetProgram(ctx, programID)
		if err != nil {
			return nil, err
		}
		rule = p.YearRule
	}

	year, err := s.store.LoadYear(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("load year: %w", err)
	}

	report := grades.BuildReport(*year, rule)
	return &report, nil
}

// Archive computes the program's report with its stored rule, writes it to
// blob storage and indexes it in the store.
func (s *Service) Archive(ctx context.Context, programID string) (*store.Report, error) {
	p, err := s.store.GetProgram(ctx, programID)
	if err != nil {
		return nil, err
	}
	built, err := s.Build(ctx, programID, p.YearRule)
	if err != nil {
		return nil, err
	}

	doc := Archived{
		ID:        uuid.NewString(),
		ProgramID: p.ID,
		CreatedAt: s.now().UTC(),
		Report:    *built,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	if err := s.blobs.PutReport(ctx, p.UserID, doc.ID, data); err != nil {
		return nil, fmt.Errorf("store report: %w", err)
	}

	row, err := s.store.RecordReport(ctx, store.Report{
		ID:         doc.ID,
		UserID:     p.UserID,
		ProgramID:  p.ID,
		Year:       built.Year,
		Rule:       built.Rule,
		Average:    built.Average.Average,
		StorageRef: p.UserID + "/reports/" + doc.ID + ".json",
	})
	if err != nil {
		s.logger.Warn("report blob written but not indexed",
			zap.String("report_id", doc.ID), zap.String("program_id", p.ID), zap.Error(err))
		return nil, fmt.Errorf("record report: %w", err)
	}

	s.logger.Info("archived report",
		zap.String("report_id", row.ID), zap.String("program_id", p.ID), zap.String("year", built.Year))
	return row, nil
}

// Load reads an archived report. The caller checks ownership on the
// returned row.
func (s *Service) Load(ctx context.Context, reportID string) (*store.Report, *Archived, error) {
	row, err := s.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.blobs.GetReport(ctx, row.UserID, row.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("read report blob: %w", err)
	}
	var doc Archived
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("decode report %s: %w", reportID, err)
	}
	return row, &doc, nil
}

// List returns the archived reports of a program, newest first.
func (s *Service) List(ctx context.Context, programID string) ([]store.Report, error) {
	return s.store.ListReports(ctx, programID)
}
