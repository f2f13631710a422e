package service

import (
	"context"

	"github.com/jengzang/sitetrack-backend-go/internal/report"
)

// ReportService generates site reports over the current records
type ReportService struct {
	segments *SegmentService
	reports  *report.Service
}

// NewReportService creates a new report service
func NewReportService(segments *SegmentService, reports *report.Service) *ReportService {
	return &ReportService{segments: segments, reports: reports}
}

// Enabled reports whether report generation is configured
func (s *ReportService) Enabled() bool {
	return s.reports.Enabled()
}

// Cached returns the last generated report, if any
func (s *ReportService) Cached() (report.Report, bool) {
	return s.reports.Cached()
}

// Generate returns the cached report, or a new one when refresh is set or
// nothing is cached
func (s *ReportService) Generate(ctx context.Context, refresh bool) (report.Report, error) {
	snap, err := s.segments.Snapshot(ctx)
	if err != nil {
		return report.Report{}, err
	}
	return s.reports.Report(ctx, snap.Records, refresh), nil
}

// Risk returns a one-sentence risk note for the record with id
func (s *ReportService) Risk(ctx context.Context, id string) (string, error) {
	rec, err := s.segments.Find(ctx, id)
	if err != nil {
		return "", err
	}
	return s.reports.Risk(ctx, rec), nil
}
