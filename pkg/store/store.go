// Package store provides the course vector store: an embedded chromem-go
// database holding a course catalog collection (one document per course)
// and a course content collection (chunked lesson text). Searches are
// semantic, with optional course and lesson filters; course names are
// resolved fuzzily against the catalog.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/philippgille/chromem-go"
)

const (
	catalogCollection = "course_catalog"
	contentCollection = "course_content"
)

// Store wraps chromem-go with the course-specific schema.
// Safe for concurrent use; chromem serializes its own mutations.
type Store struct {
	db         *chromem.DB
	catalog    *chromem.Collection
	content    *chromem.Collection
	maxResults int
}

// New opens (or creates) the store. An empty path keeps everything in
// memory, otherwise vectors persist under the given directory. maxResults
// bounds how many chunks a single search returns and must be positive;
// config validation guarantees that before we get here.
func New(path string, maxResults int, embed chromem.EmbeddingFunc) (*Store, error) {
	if maxResults <= 0 {
		return nil, fmt.Errorf("store: maxResults must be > 0, got %d", maxResults)
	}

	var db *chromem.DB
	var err error
	if path != "" {
		db, err = chromem.NewPersistentDB(path, false)
		if err != nil {
			return nil, fmt.Errorf("store: opening persistent db at %s: %w", path, err)
		}
	} else {
		db = chromem.NewDB()
	}

	catalog, err := db.GetOrCreateCollection(catalogCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("store: creating %s: %w", catalogCollection, err)
	}
	content, err := db.GetOrCreateCollection(contentCollection, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("store: creating %s: %w", contentCollection, err)
	}

	return &Store{db: db, catalog: catalog, content: content, maxResults: maxResults}, nil
}

// AddCourse writes a course's catalog entry. The course title doubles as
// the document ID and the embedded text, so ResolveCourse can match
// partial or fuzzy names semantically.
func (s *Store) AddCourse(ctx context.Context, course Course) error {
	lessons, err := json.Marshal(course.Lessons)
	if err != nil {
		return fmt.Errorf("store: encoding lessons for %q: %w", course.Title, err)
	}
	doc := chromem.Document{
		ID:      course.Title,
		Content: course.Title,
		Metadata: map[string]string{
			"link":       course.Link,
			"instructor": course.Instructor,
			"lessons":    string(lessons),
		},
	}
	if err := s.catalog.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("store: adding course %q: %w", course.Title, err)
	}
	return nil
}

// AddChunks indexes course content chunks for retrieval.
func (s *Store) AddChunks(ctx context.Context, chunks []CourseChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	docs := make([]chromem.Document, 0, len(chunks))
	for _, c := range chunks {
		md := map[string]string{
			"course_title": c.CourseTitle,
			"chunk_index":  strconv.Itoa(c.ChunkIndex),
		}
		if c.LessonNumber != nil {
			md["lesson_number"] = strconv.Itoa(*c.LessonNumber)
		}
		docs = append(docs, chromem.Document{
			ID:       fmt.Sprintf("%s_%d", c.CourseTitle, c.ChunkIndex),
			Content:  c.Content,
			Metadata: md,
		})
	}
	if err := s.content.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("store: adding %d chunks: %w", len(docs), err)
	}
	return nil
}

// Search runs a semantic content search. courseName, when non-empty, is
// resolved against the catalog first; lessonNumber, when non-nil, narrows
// to one lesson. Failures never surface as Go errors: "no match" is an
// empty result set and anything terminal sets the Error variant, which
// the search tool forwards verbatim to the model.
func (s *Store) Search(ctx context.Context, query, courseName string, lessonNumber *int) SearchResults {
	where := map[string]string{}
	if courseName != "" {
		title, ok := s.ResolveCourse(ctx, courseName)
		if !ok {
			return ErrorResults(fmt.Sprintf("No course found matching '%s'", courseName))
		}
		where["course_title"] = title
	}
	if lessonNumber != nil {
		where["lesson_number"] = strconv.Itoa(*lessonNumber)
	}
	if len(where) == 0 {
		where = nil
	}

	// chromem refuses nResults above the collection size.
	n := s.maxResults
	if count := s.content.Count(); count < n {
		n = count
	}
	if n == 0 {
		return SearchResults{}
	}

	results, err := s.content.Query(ctx, query, n, where, nil)
	if err != nil {
		slog.Debug("content query failed", "query", query, "error", err)
		return ErrorResults(fmt.Sprintf("Search error: %v", err))
	}

	out := SearchResults{
		Documents: make([]string, 0, len(results)),
		Metadata:  make([]ChunkMetadata, 0, len(results)),
		Distances: make([]float64, 0, len(results)),
	}
	for _, r := range results {
		md := ChunkMetadata{CourseTitle: r.Metadata["course_title"]}
		if v, ok := r.Metadata["lesson_number"]; ok {
			if num, err := strconv.Atoi(v); err == nil {
				md.LessonNumber = &num
			}
		}
		if v, ok := r.Metadata["chunk_index"]; ok {
			md.ChunkIndex, _ = strconv.Atoi(v)
		}
		out.Documents = append(out.Documents, r.Content)
		out.Metadata = append(out.Metadata, md)
		out.Distances = append(out.Distances, 1-float64(r.Similarity))
	}
	return out
}

// ResolveCourse maps a possibly partial course name to the stored title
// via a single nearest-neighbor lookup on the catalog.
func (s *Store) ResolveCourse(ctx context.Context, name string) (string, bool) {
	if s.catalog.Count() == 0 {
		return "", false
	}
	results, err := s.catalog.Query(ctx, name, 1, nil, nil)
	if err != nil || len(results) == 0 {
		return "", false
	}
	return results[0].ID, true
}

// LessonLink returns the stored link for one lesson of a course, or ""
// when the course or lesson is unknown or has no link.
func (s *Store) LessonLink(ctx context.Context, courseTitle string, lessonNumber int) string {
	doc, err := s.catalog.GetByID(ctx, courseTitle)
	if err != nil {
		return ""
	}
	var lessons []Lesson
	if err := json.Unmarshal([]byte(doc.Metadata["lessons"]), &lessons); err != nil {
		return ""
	}
	for _, l := range lessons {
		if l.Number == lessonNumber {
			return l.Link
		}
	}
	return ""
}

// CourseOutline resolves a course name and returns its full catalog
// entry: title, link, and the ordered lesson list.
func (s *Store) CourseOutline(ctx context.Context, name string) (*Course, bool) {
	title, ok := s.ResolveCourse(ctx, name)
	if !ok {
		return nil, false
	}
	doc, err := s.catalog.GetByID(ctx, title)
	if err != nil {
		return nil, false
	}
	course := &Course{
		Title:      title,
		Link:       doc.Metadata["link"],
		Instructor: doc.Metadata["instructor"],
	}
	if err := json.Unmarshal([]byte(doc.Metadata["lessons"]), &course.Lessons); err != nil {
		return nil, false
	}
	return course, true
}

// CourseCount returns the number of cataloged courses.
func (s *Store) CourseCount() int {
	return s.catalog.Count()
}

// CourseTitles lists all cataloged course titles, sorted. chromem has no
// document enumeration, so this queries the catalog for its full size.
func (s *Store) CourseTitles(ctx context.Context) []string {
	count := s.catalog.Count()
	if count == 0 {
		return nil
	}
	results, err := s.catalog.Query(ctx, "course", count, nil, nil)
	if err != nil {
		slog.Warn("catalog listing failed", "error", err)
		return nil
	}
	titles := make([]string, 0, len(results))
	for _, r := range results {
		titles = append(titles, r.ID)
	}
	sort.Strings(titles)
	return titles
}

// HasCourse reports whether a course with this exact title is cataloged.
func (s *Store) HasCourse(ctx context.Context, title string) bool {
	_, err := s.catalog.GetByID(ctx, title)
	return err == nil
}
