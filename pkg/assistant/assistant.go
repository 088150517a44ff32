// Package assistant is the query coordinator: it combines session
// history lookup, the model orchestration loop, and source citation
// collection into a single per-query transaction.
package assistant

import (
	"context"
	"fmt"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"

	"coursechat/pkg/ai"
	"coursechat/pkg/config"
	"coursechat/pkg/ingest"
	"coursechat/pkg/session"
	"coursechat/pkg/store"
	"coursechat/pkg/tools"
)

// Generator is the orchestration loop the coordinator drives;
// *ai.Generator satisfies it.
type Generator interface {
	Generate(ctx context.Context, query, history string, defs []anthropic.ToolUnionUnionParam, executor ai.ToolExecutor) (string, error)
}

// Analytics summarizes the indexed catalog.
type Analytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// System wires the store, tools, generator, and session manager into the
// per-query transaction the transport layer consumes.
type System struct {
	cfg       *config.Config
	store     *store.Store
	generator Generator
	sessions  *session.Manager
	registry  *tools.Registry

	// mu serializes queries: the registry's tools carry query-scoped
	// citation state on long-lived instances, so concurrent queries
	// sharing this registry would corrupt each other's sources.
	mu sync.Mutex
}

// New builds the assistant with the search and outline tools registered.
func New(cfg *config.Config, st *store.Store, gen Generator) *System {
	return &System{
		cfg:       cfg,
		store:     st,
		generator: gen,
		sessions:  session.NewManager(cfg.MaxHistory),
		registry:  tools.NewRegistry(tools.NewSearchTool(st), tools.NewOutlineTool(st)),
	}
}

// Query answers one user question and returns the answer together with
// the source citations of any retrieved content. sessionID may be empty
// for a one-off question; when present, prior turns feed the model and
// the new exchange is recorded afterwards.
func (s *System) Query(ctx context.Context, text, sessionID string) (string, []tools.Source, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := ""
	if sessionID != "" {
		history = s.sessions.History(sessionID)
	}

	prompt := fmt.Sprintf("Answer this question about course materials: %s", text)
	answer, err := s.generator.Generate(ctx, prompt, history, s.registry.Definitions(), s.registry)
	if err != nil {
		return "", nil, err
	}

	sources := s.registry.Sources()
	s.registry.ResetSources()

	if sessionID != "" {
		s.sessions.AddExchange(sessionID, text, answer)
	}
	return answer, sources, nil
}

// NewSession allocates a session ID for the transport layer.
func (s *System) NewSession() string { return s.sessions.NewSession() }

// ClearSession drops a session's history.
func (s *System) ClearSession(sessionID string) { s.sessions.Clear(sessionID) }

// Analytics reports the indexed course count and titles.
func (s *System) Analytics(ctx context.Context) (Analytics, error) {
	titles := s.store.CourseTitles(ctx)
	return Analytics{TotalCourses: s.store.CourseCount(), CourseTitles: titles}, nil
}

// AddCourseFolder ingests every course document in dir, skipping courses
// already indexed. Returns the number of courses added.
func (s *System) AddCourseFolder(ctx context.Context, dir string) (int, error) {
	proc := ingest.NewProcessor(s.cfg.ChunkSize, s.cfg.ChunkOverlap)
	return proc.ProcessFolder(ctx, dir, s.store)
}
