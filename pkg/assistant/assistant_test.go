package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursechat/pkg/ai"
	"coursechat/pkg/config"
	"coursechat/pkg/store"
)

// fakeGenerator stands in for the orchestration loop. Each call records
// its inputs and optionally drives the executor like the model would.
type fakeGenerator struct {
	answer   string
	err      error
	toolCall string // tool name to invoke through the executor, if any
	toolArgs string

	queries   []string
	histories []string
	lastDefs  []anthropic.ToolUnionUnionParam
}

func (f *fakeGenerator) Generate(ctx context.Context, query, history string, defs []anthropic.ToolUnionUnionParam, executor ai.ToolExecutor) (string, error) {
	f.queries = append(f.queries, query)
	f.histories = append(f.histories, history)
	f.lastDefs = defs
	if f.err != nil {
		return "", f.err
	}
	if f.toolCall != "" {
		if _, err := executor.Execute(ctx, f.toolCall, json.RawMessage(f.toolArgs)); err != nil {
			return "", err
		}
	}
	return f.answer, nil
}

func constantEmbedding(_ context.Context, text string) ([]float32, error) {
	vec := []float32{1, 0.5, 0.25, 0.125}
	for i, ch := range []byte(text) {
		vec[i%4] += float32(ch) / 256
	}
	return vec, nil
}

func testConfig() *config.Config {
	return &config.Config{
		AnthropicAPIKey:   "test-key",
		AnthropicModel:    "claude-test",
		EmbeddingProvider: "ollama",
		ChunkSize:         800,
		ChunkOverlap:      100,
		MaxResults:        3,
		MaxToolRounds:     2,
		MaxHistory:        2,
	}
}

func newTestSystem(t *testing.T, gen Generator) (*System, *store.Store) {
	t.Helper()
	st, err := store.New("", 3, chromem.EmbeddingFunc(constantEmbedding))
	require.NoError(t, err)
	return New(testConfig(), st, gen), st
}

func seedStore(t *testing.T, st *store.Store) {
	t.Helper()
	ctx := context.Background()
	one := 1
	require.NoError(t, st.AddCourse(ctx, store.Course{
		Title:   "MCP Course",
		Lessons: []store.Lesson{{Number: 1, Title: "Intro", Link: "https://example.com/mcp/1"}},
	}))
	require.NoError(t, st.AddChunks(ctx, []store.CourseChunk{
		{Content: "MCP content about servers", CourseTitle: "MCP Course", LessonNumber: &one, ChunkIndex: 0},
	}))
}

func TestQueryWrapsPrompt(t *testing.T) {
	gen := &fakeGenerator{answer: "the answer"}
	sys, _ := newTestSystem(t, gen)

	answer, sources, err := sys.Query(context.Background(), "What is MCP?", "")
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
	assert.Empty(t, sources)

	require.Len(t, gen.queries, 1)
	assert.Equal(t, "Answer this question about course materials: What is MCP?", gen.queries[0])
	assert.Equal(t, "", gen.histories[0])

	// Both retrieval tools were offered to the model.
	require.Len(t, gen.lastDefs, 2)
	assert.Equal(t, "search_course_content", gen.lastDefs[0].(anthropic.ToolParam).Name.Value)
	assert.Equal(t, "get_course_outline", gen.lastDefs[1].(anthropic.ToolParam).Name.Value)
}

func TestQuerySessionHistory(t *testing.T) {
	gen := &fakeGenerator{answer: "answer one"}
	sys, _ := newTestSystem(t, gen)
	id := sys.NewSession()

	_, _, err := sys.Query(context.Background(), "first question", id)
	require.NoError(t, err)

	gen.answer = "answer two"
	_, _, err = sys.Query(context.Background(), "second question", id)
	require.NoError(t, err)

	require.Len(t, gen.histories, 2)
	assert.Equal(t, "", gen.histories[0])
	assert.Equal(t, "User: first question\nAssistant: answer one", gen.histories[1])
}

func TestQueryWithoutSessionKeepsNoHistory(t *testing.T) {
	gen := &fakeGenerator{answer: "a"}
	sys, _ := newTestSystem(t, gen)

	_, _, err := sys.Query(context.Background(), "one-off", "")
	require.NoError(t, err)
	_, _, err = sys.Query(context.Background(), "another one-off", "")
	require.NoError(t, err)
	assert.Equal(t, "", gen.histories[1])
}

func TestQueryCollectsAndResetsSources(t *testing.T) {
	gen := &fakeGenerator{
		answer:   "answer with citation",
		toolCall: "search_course_content",
		toolArgs: `{"query":"MCP content about servers"}`,
	}
	sys, st := newTestSystem(t, gen)
	seedStore(t, st)

	_, sources, err := sys.Query(context.Background(), "What is in the MCP course?", "")
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "MCP Course - Lesson 1", sources[0].Text)
	assert.Equal(t, "https://example.com/mcp/1", sources[0].URL)

	// A follow-up query that triggers no search reports no sources.
	gen.toolCall = ""
	_, sources, err = sys.Query(context.Background(), "thanks", "")
	require.NoError(t, err)
	assert.Empty(t, sources)
}

func TestQueryGeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model overloaded")}
	sys, _ := newTestSystem(t, gen)
	id := sys.NewSession()

	_, _, err := sys.Query(context.Background(), "question", id)
	require.Error(t, err)
	assert.EqualError(t, err, "model overloaded")

	// A failed query records no exchange.
	gen.err = nil
	gen.answer = "fine now"
	_, _, err = sys.Query(context.Background(), "retry", id)
	require.NoError(t, err)
	assert.Equal(t, "", gen.histories[1])
}

func TestClearSession(t *testing.T) {
	gen := &fakeGenerator{answer: "a"}
	sys, _ := newTestSystem(t, gen)
	id := sys.NewSession()

	_, _, err := sys.Query(context.Background(), "q", id)
	require.NoError(t, err)
	sys.ClearSession(id)

	_, _, err = sys.Query(context.Background(), "after clear", id)
	require.NoError(t, err)
	assert.Equal(t, "", gen.histories[1])
}

func TestAnalytics(t *testing.T) {
	sys, st := newTestSystem(t, &fakeGenerator{answer: "a"})
	seedStore(t, st)

	analytics, err := sys.Analytics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, analytics.TotalCourses)
	assert.Equal(t, []string{"MCP Course"}, analytics.CourseTitles)
}
