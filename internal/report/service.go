package report

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jengzang/sitetrack-backend-go/internal/logger"
	"github.com/jengzang/sitetrack-backend-go/internal/models"
)

const generateTimeout = 90 * time.Second

// Report is a generated report and when it was produced.
type Report struct {
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generatedAt"`
	Cached      bool      `json:"cached"`
	Failed      bool      `json:"failed"`
}

// Service caches the last successful report and lets only one generation run
// at a time.
type Service struct {
	gen   Generator
	log   *logger.Logger
	now   func() time.Time
	group singleflight.Group

	mu     sync.Mutex
	cached *Report
}

// NewService wraps gen with the report cache.
func NewService(gen Generator, log *logger.Logger) *Service {
	return &Service{
		gen: gen,
		log: log.With("component", "ReportService"),
		now: time.Now,
	}
}

// Enabled reports whether a real generator is configured.
func (s *Service) Enabled() bool { return s.gen.Enabled() }

// Cached returns the cached report, if any.
func (s *Service) Cached() (Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cached == nil {
		return Report{}, false
	}
	r := *s.cached
	r.Cached = true
	return r, true
}

// Report returns the cached report unless refresh is set or nothing is
// cached yet. Concurrent callers share one generation. Failure messages are
// returned but never cached.
func (s *Service) Report(ctx context.Context, records []models.SegmentRecord, refresh bool) Report {
	if !refresh {
		if r, ok := s.Cached(); ok {
			return r
		}
	}

	v, _, shared := s.group.Do("report", func() (interface{}, error) {
		// a caller going away must not cancel the shared request
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), generateTimeout)
		defer cancel()

		start := s.now()
		text := s.gen.Generate(genCtx, records)
		r := Report{Text: text, GeneratedAt: s.now().UTC(), Failed: IsFailure(text)}
		if r.Failed {
			s.log.Warn("report generation failed", "records", len(records), "elapsed", s.now().Sub(start))
			return r, nil
		}

		s.mu.Lock()
		s.cached = &r
		s.mu.Unlock()
		s.log.Info("report generated", "records", len(records), "elapsed", s.now().Sub(start))
		return r, nil
	})

	r := v.(Report)
	if shared {
		s.log.Debug("joined in-flight report generation")
	}
	return r
}

// Risk returns a one-sentence risk note for rec. Results are not cached.
func (s *Service) Risk(ctx context.Context, rec models.SegmentRecord) string {
	return s.gen.AnalyzeRisk(ctx, rec)
}

// Invalidate drops the cached report.
func (s *Service) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.mu.Unlock()
}
