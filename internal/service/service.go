// Package service is the boundary consumed by the request-handling
// layer: list entities, analyze, anonymize, switch backend.
package service

import (
	"context"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"piiguard/internal/analysis"
	"piiguard/internal/anonymize"
	"piiguard/internal/audit"
	"piiguard/internal/engine"
)

// DefaultScoreThreshold applies when a request does not set one.
const DefaultScoreThreshold = 0.5

// Service ties the engine selector, the anonymizer, and the audit trail
// together. Safe for concurrent use.
type Service struct {
	selector *engine.Selector
	audit    audit.Logger
	log      *logrus.Entry

	mu       sync.RWMutex
	defaults []string
}

// New builds a Service. defaults is the entity set used when a request
// omits one; auditLogger may be nil to disable auditing.
func New(selector *engine.Selector, defaults []string, auditLogger audit.Logger, log *logrus.Entry) (*Service, error) {
	if selector == nil {
		return nil, fmt.Errorf("%w: service needs an engine selector", analysis.ErrConfig)
	}
	if len(defaults) == 0 {
		return nil, fmt.Errorf("%w: service needs a default entity set", analysis.ErrConfig)
	}
	if auditLogger == nil {
		auditLogger = audit.Nop{}
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Service{
		selector: selector,
		audit:    auditLogger,
		log:      log,
		defaults: append([]string(nil), defaults...),
	}, nil
}

// SupportedEntities lists the entity types of the active backend's
// recognizer registry.
func (s *Service) SupportedEntities() ([]analysis.EntityInfo, error) {
	analyzer, err := s.selector.Analyzer()
	if err != nil {
		return nil, err
	}
	return analyzer.Registry().SupportedEntities(), nil
}

// Analyze detects entities in text. Empty entityTypes means the service
// defaults; a negative threshold means DefaultScoreThreshold.
func (s *Service) Analyze(ctx context.Context, text string, entityTypes []string, threshold float64) ([]analysis.Entity, error) {
	if threshold < 0 {
		threshold = DefaultScoreThreshold
	}
	analyzer, err := s.selector.Analyzer()
	if err != nil {
		return nil, err
	}
	if len(entityTypes) == 0 {
		entityTypes = s.DefaultEntities()
	}
	entities, err := analyzer.Analyze(ctx, text, entityTypes, threshold)
	if err != nil {
		return nil, err
	}
	s.logAudit("analyze", "", text, entities)
	return entities, nil
}

// Anonymize analyzes text and rewrites every detected span with the
// named style (replace|mask|hash|redact).
func (s *Service) Anonymize(ctx context.Context, text string, entityTypes []string, style string, threshold float64) (anonymize.Result, error) {
	ops, err := anonymize.ForStyle(style)
	if err != nil {
		return anonymize.Result{}, err
	}
	if threshold < 0 {
		threshold = DefaultScoreThreshold
	}
	analyzer, err := s.selector.Analyzer()
	if err != nil {
		return anonymize.Result{}, err
	}
	if len(entityTypes) == 0 {
		entityTypes = s.DefaultEntities()
	}
	entities, err := analyzer.Analyze(ctx, text, entityTypes, threshold)
	if err != nil {
		return anonymize.Result{}, err
	}
	result := anonymize.Anonymize(text, entities, ops)
	s.logAudit("anonymize", style, text, entities)
	return result, nil
}

// SwitchBackend makes the named backend active. Unknown ids are a
// configuration error; a failed rebuild leaves the previous backend
// active.
func (s *Service) SwitchBackend(id string) error {
	return s.selector.Switch(id)
}

// ActiveBackend returns the active backend id.
func (s *Service) ActiveBackend() string { return s.selector.Active() }

// Backends lists the registered backends.
func (s *Service) Backends() []engine.Backend { return s.selector.Backends() }

// DefaultEntities returns a copy of the current default entity set.
func (s *Service) DefaultEntities() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.defaults...)
}

// SetDefaultEntities replaces the default entity set. This is the single
// guarded setter for the process-wide defaults; changes are not
// persisted across restarts.
func (s *Service) SetDefaultEntities(entities []string) error {
	if len(entities) == 0 {
		return fmt.Errorf("%w: default entity set cannot be empty", analysis.ErrInput)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaults = append([]string(nil), entities...)
	return nil
}

func (s *Service) logAudit(op, style, text string, entities []analysis.Entity) {
	counts := make(map[string]int, len(entities))
	for _, e := range entities {
		counts[e.Type]++
	}
	err := s.audit.Log(audit.Entry{
		Operation:    op,
		Backend:      s.selector.Active(),
		Style:        style,
		TextChars:    utf8.RuneCountInString(text),
		EntityCounts: counts,
	})
	if err != nil {
		s.log.WithError(err).Warn("audit write failed")
	}
}
