package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"coursechat/pkg/store"
)

// OutlineSource is the slice of the vector store the outline tool needs.
type OutlineSource interface {
	CourseOutline(ctx context.Context, name string) (*store.Course, bool)
}

// OutlineArgs are the model-facing arguments of the outline tool.
type OutlineArgs struct {
	CourseName string `json:"course_name" jsonschema:"required,description=Course title to get the outline for; partial names are matched."`
}

// OutlineTool returns a course's structure: title, link, and lesson list.
// It retrieves no content, so it deliberately does not track sources.
type OutlineTool struct {
	store OutlineSource
}

// NewOutlineTool builds the outline tool over the given store.
func NewOutlineTool(s OutlineSource) *OutlineTool {
	return &OutlineTool{store: s}
}

func (t *OutlineTool) Name() string { return "get_course_outline" }

func (t *OutlineTool) Description() string {
	return "Get the outline of a course: its title, link, and complete lesson list"
}

func (t *OutlineTool) InputSchema() any { return GenerateSchema[OutlineArgs]() }

func (t *OutlineTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var a OutlineArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", fmt.Errorf("invalid arguments for %s: %w", t.Name(), err)
	}

	course, ok := t.store.CourseOutline(ctx, a.CourseName)
	if !ok {
		return fmt.Sprintf("No course found matching '%s'", a.CourseName), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", course.Title)
	if course.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", course.Link)
	}
	fmt.Fprintf(&b, "\nLessons (%d):\n", len(course.Lessons))
	for _, l := range course.Lessons {
		fmt.Fprintf(&b, "%d. %s\n", l.Number, l.Title)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
