package runner

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ridoystarlord/dbenforce/database"
	"github.com/ridoystarlord/dbenforce/diff"
	"github.com/ridoystarlord/dbenforce/history"
	"github.com/ridoystarlord/dbenforce/introspect"
	"github.com/ridoystarlord/dbenforce/schema"
)

type Options struct {
	Logger zerolog.Logger
	// PasswordColumn is the mysql.user password hash column, "Password" by default
	PasswordColumn string
	// StatementsPerSecond throttles apply statements; 0 means unlimited
	StatementsPerSecond float64
	// History, when set, receives one record per apply
	History history.Recorder
	// ManifestName labels history records
	ManifestName string
}

// Session reconciles manifests against one server. It caches classifications by
// manifest identity so an Apply after a Check of the same manifest does not read
// the server again. A Session is not safe for concurrent use.
type Session struct {
	inspector *introspect.Inspector
	writer    database.Executor
	cache     map[string]*diff.Classification
	log       zerolog.Logger
	history   history.Recorder
	manifest  string
}

func NewSession(exec database.Executor, opts Options) *Session {
	return &Session{
		inspector: introspect.NewInspector(exec, opts.PasswordColumn),
		writer:    database.Throttle(exec, opts.StatementsPerSecond),
		cache:     map[string]*diff.Classification{},
		log:       opts.Logger,
		history:   opts.History,
		manifest:  opts.ManifestName,
	}
}

func (s *Session) classify(ctx context.Context, m *schema.Manifest, id string) (*diff.Classification, error) {
	start := time.Now()
	c, err := diff.Classify(ctx, s.inspector, m)
	if err != nil {
		return nil, err
	}
	s.cache[id] = c
	s.log.Debug().Str("manifest", id[:12]).Int("pending", c.Pending()).Dur("took", time.Since(start)).Msg("manifest classified")
	return c, nil
}

// Check reports whether the server already satisfies m. It always reads the server
// and replaces any cached classification of m.
func (s *Session) Check(ctx context.Context, m *schema.Manifest) (bool, error) {
	id, err := m.Identity()
	if err != nil {
		return false, err
	}
	c, err := s.classify(ctx, m, id)
	if err != nil {
		return false, err
	}
	return c.Satisfied(), nil
}

// cached returns the stored classification of m, classifying on a miss
func (s *Session) cached(ctx context.Context, m *schema.Manifest) (*diff.Classification, string, error) {
	id, err := m.Identity()
	if err != nil {
		return nil, "", err
	}
	if c, ok := s.cache[id]; ok {
		s.log.Debug().Str("manifest", id[:12]).Msg("using cached classification")
		return c, id, nil
	}
	c, err := s.classify(ctx, m, id)
	if err != nil {
		return nil, "", err
	}
	return c, id, nil
}

// Preview builds the plan Apply would execute, without executing it
func (s *Session) Preview(ctx context.Context, m *schema.Manifest) (*Plan, error) {
	c, _, err := s.cached(ctx, m)
	if err != nil {
		return nil, err
	}
	return BuildPlan(c)
}

// Apply converges the server to m. On a statement failure the partial report is
// returned together with an *ExecError.
func (s *Session) Apply(ctx context.Context, m *schema.Manifest) (*Report, error) {
	start := time.Now()
	c, id, err := s.cached(ctx, m)
	if err != nil {
		return nil, err
	}
	// The server is about to change; the classification is stale after this call
	delete(s.cache, id)

	plan, err := BuildPlan(c)
	if err != nil {
		return nil, err
	}
	if plan.Empty() {
		s.log.Info().Msg(NothingToDo)
		s.record(ctx, id, start, &Report{}, nil)
		return &Report{}, nil
	}

	s.log.Info().Int("statements", len(plan.Statements())).Msg("applying manifest")
	report, err := Execute(ctx, s.writer, plan)
	s.record(ctx, id, start, report, err)
	if err != nil {
		return report, err
	}
	s.log.Info().Int("statements", len(report.Statements)).Dur("took", time.Since(start)).Msg("manifest applied")
	return report, nil
}

func (s *Session) record(ctx context.Context, id string, start time.Time, report *Report, applyErr error) {
	if s.history == nil {
		return
	}
	r := history.Record{
		Manifest:      s.manifest,
		Checksum:      id,
		AppliedAt:     start,
		ExecutionTime: time.Since(start),
		ExecutedBy:    history.CurrentUser(),
		Status:        history.StatusSuccess,
		Statements:    len(report.Statements),
		Summary:       report.String(),
	}
	switch {
	case applyErr != nil:
		r.Status = history.StatusFailed
		r.ErrorMessage = database.Redact(applyErr.Error())
	case report.Empty():
		r.Status = history.StatusUnchanged
	}
	if err := s.history.Record(ctx, r); err != nil {
		s.log.Warn().Err(err).Msg("failed to record apply history")
	}
}

// Invalidate drops every cached classification
func (s *Session) Invalidate() {
	s.cache = map[string]*diff.Classification{}
}

// Cached reports whether a classification of m is held
func (s *Session) Cached(m *schema.Manifest) bool {
	id, err := m.Identity()
	if err != nil {
		return false
	}
	_, ok := s.cache[id]
	return ok
}
