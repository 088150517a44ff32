package store

import (
	"context"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/philippgille/chromem-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEmbedding is a deterministic bag-of-words hash embedding: texts
// sharing words land near each other, which is all these tests need.
func testEmbedding(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, 32)
	vec[0] = 0.1 // never a zero vector
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(word, ".,:;!?'\"()")))
		vec[1+h.Sum32()%31]++
	}
	return vec, nil
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New("", 3, chromem.EmbeddingFunc(testEmbedding))
	require.NoError(t, err)
	return s
}

func intPtr(n int) *int { return &n }

func mcpCourse() Course {
	return Course{
		Title:      "MCP: Build Rich-Context AI Apps",
		Link:       "https://example.com/mcp",
		Instructor: "Elie Schoppik",
		Lessons: []Lesson{
			{Number: 0, Title: "Introduction", Link: "https://example.com/mcp/lesson/0"},
			{Number: 1, Title: "Why MCP", Link: "https://example.com/mcp/lesson/1"},
			{Number: 2, Title: "MCP Architecture"},
		},
	}
}

func seedCourse(t *testing.T, s *Store, course Course, chunks []CourseChunk) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.AddCourse(ctx, course))
	require.NoError(t, s.AddChunks(ctx, chunks))
}

func TestNewRejectsNonPositiveMaxResults(t *testing.T) {
	_, err := New("", 0, chromem.EmbeddingFunc(testEmbedding))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maxResults")
}

func TestSearchEmptyStore(t *testing.T) {
	s := newTestStore(t)

	results := s.Search(context.Background(), "anything", "", nil)
	assert.True(t, results.IsEmpty())
	assert.Empty(t, results.Error)
}

func TestSearchReturnsRankedChunks(t *testing.T) {
	s := newTestStore(t)
	course := mcpCourse()
	seedCourse(t, s, course, []CourseChunk{
		{Content: "MCP servers expose tools and resources to clients", CourseTitle: course.Title, LessonNumber: intPtr(1), ChunkIndex: 0},
		{Content: "gardening tips for tomato plants in summer", CourseTitle: course.Title, LessonNumber: intPtr(2), ChunkIndex: 1},
	})

	results := s.Search(context.Background(), "MCP servers expose tools", "", nil)
	require.Empty(t, results.Error)
	require.NotEmpty(t, results.Documents)

	// Parallel slices, best match first, distances ascending.
	assert.Len(t, results.Metadata, len(results.Documents))
	assert.Len(t, results.Distances, len(results.Documents))
	assert.Contains(t, results.Documents[0], "MCP servers")
	require.NotNil(t, results.Metadata[0].LessonNumber)
	assert.Equal(t, 1, *results.Metadata[0].LessonNumber)
	assert.Equal(t, course.Title, results.Metadata[0].CourseTitle)
	for i := 1; i < len(results.Distances); i++ {
		assert.LessOrEqual(t, results.Distances[i-1], results.Distances[i])
	}
}

func TestSearchBoundedByMaxResults(t *testing.T) {
	s := newTestStore(t)
	course := mcpCourse()
	var chunks []CourseChunk
	for i := 0; i < 6; i++ {
		chunks = append(chunks, CourseChunk{
			Content:     "MCP protocol lesson content chunk",
			CourseTitle: course.Title,
			ChunkIndex:  i,
		})
	}
	seedCourse(t, s, course, chunks)

	results := s.Search(context.Background(), "MCP protocol", "", nil)
	require.Empty(t, results.Error)
	assert.Len(t, results.Documents, 3)
}

func TestSearchWithCourseFilter(t *testing.T) {
	s := newTestStore(t)
	mcp := mcpCourse()
	seedCourse(t, s, mcp, []CourseChunk{
		{Content: "transport layers carry protocol messages", CourseTitle: mcp.Title, LessonNumber: intPtr(1), ChunkIndex: 0},
	})
	python := Course{Title: "Python Basics", Lessons: []Lesson{{Number: 1, Title: "Variables"}}}
	seedCourse(t, s, python, []CourseChunk{
		{Content: "transport layers carry protocol messages", CourseTitle: python.Title, LessonNumber: intPtr(1), ChunkIndex: 0},
	})

	results := s.Search(context.Background(), "transport protocol", "MCP", nil)
	require.Empty(t, results.Error)
	require.NotEmpty(t, results.Documents)
	for _, md := range results.Metadata {
		assert.Equal(t, mcp.Title, md.CourseTitle)
	}
}

func TestSearchWithLessonFilter(t *testing.T) {
	s := newTestStore(t)
	course := mcpCourse()
	seedCourse(t, s, course, []CourseChunk{
		{Content: "lesson one talks about motivation", CourseTitle: course.Title, LessonNumber: intPtr(1), ChunkIndex: 0},
		{Content: "lesson two talks about architecture", CourseTitle: course.Title, LessonNumber: intPtr(2), ChunkIndex: 1},
	})

	results := s.Search(context.Background(), "talks about", "", intPtr(2))
	require.Empty(t, results.Error)
	require.Len(t, results.Documents, 1)
	assert.Contains(t, results.Documents[0], "architecture")

	// A lesson nothing was indexed under yields the empty variant.
	results = s.Search(context.Background(), "talks about", "", intPtr(99))
	assert.True(t, results.IsEmpty())
}

func TestSearchUnknownCourse(t *testing.T) {
	s := newTestStore(t)

	results := s.Search(context.Background(), "anything", "Nonexistent", nil)
	assert.Equal(t, "No course found matching 'Nonexistent'", results.Error)
	assert.Empty(t, results.Documents)
}

func TestResolveCoursePartialName(t *testing.T) {
	s := newTestStore(t)
	seedCourse(t, s, mcpCourse(), nil)
	seedCourse(t, s, Course{Title: "Python Basics"}, nil)

	title, ok := s.ResolveCourse(context.Background(), "MCP")
	require.True(t, ok)
	assert.Equal(t, "MCP: Build Rich-Context AI Apps", title)
}

func TestResolveCourseEmptyCatalog(t *testing.T) {
	s := newTestStore(t)
	_, ok := s.ResolveCourse(context.Background(), "MCP")
	assert.False(t, ok)
}

func TestLessonLink(t *testing.T) {
	s := newTestStore(t)
	course := mcpCourse()
	seedCourse(t, s, course, nil)
	ctx := context.Background()

	assert.Equal(t, "https://example.com/mcp/lesson/1", s.LessonLink(ctx, course.Title, 1))
	assert.Equal(t, "", s.LessonLink(ctx, course.Title, 2), "lesson without a link")
	assert.Equal(t, "", s.LessonLink(ctx, course.Title, 99), "unknown lesson")
	assert.Equal(t, "", s.LessonLink(ctx, "Unknown Course", 1))
}

func TestCourseOutline(t *testing.T) {
	s := newTestStore(t)
	seedCourse(t, s, mcpCourse(), nil)

	course, ok := s.CourseOutline(context.Background(), "MCP")
	require.True(t, ok)
	assert.Equal(t, "MCP: Build Rich-Context AI Apps", course.Title)
	assert.Equal(t, "https://example.com/mcp", course.Link)
	assert.Equal(t, "Elie Schoppik", course.Instructor)
	require.Len(t, course.Lessons, 3)
	assert.Equal(t, "Why MCP", course.Lessons[1].Title)

	_, ok = s.CourseOutline(context.Background(), "anything")
	assert.True(t, ok, "any name resolves to the nearest course while one exists")
}

func TestCourseCountAndTitles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	assert.Equal(t, 0, s.CourseCount())
	assert.Empty(t, s.CourseTitles(ctx))

	seedCourse(t, s, mcpCourse(), nil)
	seedCourse(t, s, Course{Title: "Advanced Retrieval"}, nil)

	assert.Equal(t, 2, s.CourseCount())
	assert.Equal(t, []string{"Advanced Retrieval", "MCP: Build Rich-Context AI Apps"}, s.CourseTitles(ctx))
}

func TestHasCourse(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	seedCourse(t, s, mcpCourse(), nil)

	assert.True(t, s.HasCourse(ctx, "MCP: Build Rich-Context AI Apps"))
	assert.False(t, s.HasCourse(ctx, "MCP"), "HasCourse is exact, not fuzzy")
}
