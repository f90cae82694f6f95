package engine

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"piiguard/internal/analysis"
	"piiguard/internal/ner"
)

// Selector is the only mutable process-wide state in the core. It lazily
// constructs an Analyzer for the active backend, caches it, and swaps
// the active backend only when a rebuild succeeds. All access is
// serialized through one mutex; concurrent Analyze calls share the
// cached instance read-only.
type Selector struct {
	mu         sync.Mutex
	backends   *Backends
	cache      *lru.Cache[string, *cachedEngine]
	active     string
	defaults   []string
	nerEnabled bool
	log        *logrus.Entry

	// buildModel is swappable for tests.
	buildModel func(dir string) ner.TokenClassifier
}

type cachedEngine struct {
	analyzer *analysis.Analyzer
	model    *ner.Model
}

// NewSelector validates the initial backend id and prepares the cache.
// Analyzer construction is deferred to the first Analyzer call. With
// nerEnabled false, analyzers carry only the pattern recognizers.
func NewSelector(backends *Backends, initial string, defaults []string, nerEnabled bool, log *logrus.Entry) (*Selector, error) {
	if backends == nil || backends.Len() == 0 {
		return nil, fmt.Errorf("%w: no backends registered", analysis.ErrConfig)
	}
	if _, ok := backends.Find(initial); !ok {
		return nil, fmt.Errorf("%w: unknown backend %q", analysis.ErrConfig, initial)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	cache, err := lru.NewWithEvict(backends.Len(), func(_ string, e *cachedEngine) {
		if e.model != nil {
			e.model.Close()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%w: engine cache: %v", analysis.ErrConfig, err)
	}
	return &Selector{
		backends:   backends,
		cache:      cache,
		active:     initial,
		defaults:   defaults,
		nerEnabled: nerEnabled,
		log:        log,
		buildModel: func(dir string) ner.TokenClassifier { return ner.NewModel(dir) },
	}, nil
}

// Active returns the currently selected backend id.
func (s *Selector) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Backends lists the registered backends.
func (s *Selector) Backends() []Backend { return s.backends.List() }

// Analyzer returns the analyzer bound to the active backend, building it
// on first use. The first caller pays the model-loading cost; later
// callers reuse the cached instance.
func (s *Selector) Analyzer() (*analysis.Analyzer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	engine, err := s.ensure(s.active)
	if err != nil {
		return nil, err
	}
	return engine.analyzer, nil
}

// Switch rebuilds the analyzer for the named backend and makes it
// active. Unknown ids are a configuration error. A failed rebuild
// leaves the previous backend active.
func (s *Selector) Switch(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.backends.Find(id); !ok {
		return fmt.Errorf("%w: unknown backend %q", analysis.ErrConfig, id)
	}
	if _, err := s.ensure(id); err != nil {
		return err
	}
	if s.active != id {
		s.log.WithFields(logrus.Fields{"from": s.active, "to": id}).Info("switched analysis backend")
	}
	s.active = id
	return nil
}

// Close tears down every cached analyzer and its model handle.
func (s *Selector) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
}

// ensure returns the cached engine for id, constructing it if needed.
// Callers hold s.mu.
func (s *Selector) ensure(id string) (*cachedEngine, error) {
	if engine, ok := s.cache.Get(id); ok {
		return engine, nil
	}
	backend, _ := s.backends.Find(id)
	engine, err := s.build(backend)
	if err != nil {
		return nil, err
	}
	s.cache.Add(id, engine)
	return engine, nil
}

func (s *Selector) build(backend Backend) (*cachedEngine, error) {
	registry := analysis.NewRegistry()
	swiss, err := analysis.SwissRecognizers()
	if err != nil {
		return nil, err
	}
	generic, err := analysis.GenericRecognizers()
	if err != nil {
		return nil, err
	}
	for _, rec := range append(swiss, generic...) {
		registry.Add(rec)
	}

	var model *ner.Model
	if s.nerEnabled {
		classifier := s.buildModel(backend.ModelDir)
		if m, ok := classifier.(*ner.Model); ok {
			// Load eagerly: a broken model must fail the build, not the
			// first request after it.
			if err := m.Load(); err != nil {
				return nil, err
			}
			model = m
		}
		rec, err := ner.NewRecognizer("ner_"+backend.ID, classifier, backend.LabelMap)
		if err != nil {
			return nil, err
		}
		registry.Add(rec)
	}

	analyzer, err := analysis.NewAnalyzer(registry, s.defaults, s.log.WithField("backend", backend.ID))
	if err != nil {
		return nil, err
	}
	s.log.WithField("backend", backend.ID).Info("analyzer constructed")
	return &cachedEngine{analyzer: analyzer, model: model}, nil
}
