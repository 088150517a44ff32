package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"coursechat/pkg/store"
)

// CourseSearcher is the slice of the vector store the search tool needs.
type CourseSearcher interface {
	Search(ctx context.Context, query, courseName string, lessonNumber *int) store.SearchResults
	LessonLink(ctx context.Context, courseTitle string, lessonNumber int) string
}

// SearchArgs are the model-facing arguments of the search tool.
type SearchArgs struct {
	Query        string `json:"query" jsonschema:"required,description=What to search for in the course content."`
	CourseName   string `json:"course_name,omitempty" jsonschema:"description=Course title to search within; partial names are matched (e.g. 'MCP')."`
	LessonNumber *int   `json:"lesson_number,omitempty" jsonschema:"description=Specific lesson number to search within (e.g. 3)."`
}

// SearchTool performs semantic search over course content and tracks the
// citations of its most recent productive call.
type SearchTool struct {
	store CourseSearcher

	// lastSources is replaced only by a call that produced at least one
	// result block; empty or erroring calls leave the previous citations
	// in place so a probing follow-up search cannot erase the citation
	// the answer actually used.
	lastSources []Source
}

// NewSearchTool builds the search tool over the given store.
func NewSearchTool(s CourseSearcher) *SearchTool {
	return &SearchTool{store: s}
}

func (t *SearchTool) Name() string { return "search_course_content" }

func (t *SearchTool) Description() string {
	return "Search course materials with smart course name matching and lesson filtering"
}

func (t *SearchTool) InputSchema() any { return GenerateSchema[SearchArgs]() }

// Execute runs the search and formats the outcome for the model. A store
// failure comes back as the error text itself, not as a Go error: the
// model is expected to read it and state the failure plainly.
func (t *SearchTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var a SearchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", fmt.Errorf("invalid arguments for %s: %w", t.Name(), err)
	}

	results := t.store.Search(ctx, a.Query, a.CourseName, a.LessonNumber)
	if results.Error != "" {
		return results.Error, nil
	}
	if results.IsEmpty() {
		return emptyMessage(a.CourseName, a.LessonNumber), nil
	}
	return t.formatResults(ctx, results), nil
}

// LastSources returns the citations of the most recent productive search.
func (t *SearchTool) LastSources() []Source { return t.lastSources }

// ResetSources clears the tracked citations.
func (t *SearchTool) ResetSources() { t.lastSources = nil }

// formatResults renders one labeled block per chunk, in store order, and
// replaces lastSources with the deduplicated citation list.
func (t *SearchTool) formatResults(ctx context.Context, results store.SearchResults) string {
	type sourceKey struct {
		course string
		lesson int // -1 when the chunk has no lesson
	}

	blocks := make([]string, 0, len(results.Documents))
	sources := make([]Source, 0, len(results.Documents))
	seen := make(map[sourceKey]bool)
	links := make(map[sourceKey]string)

	for i, doc := range results.Documents {
		md := results.Metadata[i]

		header := fmt.Sprintf("[%s]", md.CourseTitle)
		key := sourceKey{course: md.CourseTitle, lesson: -1}
		if md.LessonNumber != nil {
			header = fmt.Sprintf("[%s - Lesson %d]", md.CourseTitle, *md.LessonNumber)
			key.lesson = *md.LessonNumber
		}
		blocks = append(blocks, header+"\n"+doc)

		if seen[key] {
			continue
		}
		seen[key] = true

		src := Source{Text: md.CourseTitle}
		if md.LessonNumber != nil {
			src.Text = fmt.Sprintf("%s - Lesson %d", md.CourseTitle, *md.LessonNumber)
			link, ok := links[key]
			if !ok {
				link = t.store.LessonLink(ctx, md.CourseTitle, *md.LessonNumber)
				links[key] = link
			}
			src.URL = link
		}
		sources = append(sources, src)
	}

	t.lastSources = sources
	return strings.Join(blocks, "\n\n")
}

func emptyMessage(courseName string, lessonNumber *int) string {
	msg := "No relevant content found"
	if courseName != "" {
		msg += fmt.Sprintf(" in course '%s'", courseName)
	}
	if lessonNumber != nil {
		msg += fmt.Sprintf(" in lesson %d", *lessonNumber)
	}
	return msg + "."
}
