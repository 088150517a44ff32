// Package ingest loads course scripts into the vector store. A course
// document is plain text with an optional header:
//
//	Course Title: Building Towards Computer Use
//	Course Link: https://example.com/course
//	Course Instructor: Colt Steele
//
// followed by lesson sections introduced by "Lesson N: title" lines,
// each optionally carrying a "Lesson Link:" line. Lesson text is split
// into overlapping sentence-window chunks before indexing.
package ingest

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"coursechat/pkg/store"
)

var lessonMarker = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.+)$`)

// Processor parses course documents and produces catalog entries plus
// content chunks.
type Processor struct {
	chunkSize    int
	chunkOverlap int
}

// NewProcessor builds a Processor with the given chunking parameters.
func NewProcessor(chunkSize, chunkOverlap int) *Processor {
	return &Processor{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// ProcessFile parses one course document into its catalog entry and
// content chunks.
func (p *Processor) ProcessFile(path string) (store.Course, []store.CourseChunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return store.Course{}, nil, fmt.Errorf("ingest: opening %s: %w", path, err)
	}
	defer f.Close()

	course := store.Course{
		// Fallback title when the document has no header.
		Title: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
	}

	var chunks []store.CourseChunk
	var lessonText []string
	var currentLesson *store.Lesson
	chunkIndex := 0

	flushLesson := func() {
		if len(lessonText) == 0 {
			return
		}
		text := strings.Join(lessonText, " ")
		for i, c := range chunkText(text, p.chunkSize, p.chunkOverlap) {
			content := c
			var lessonNum *int
			if currentLesson != nil {
				n := currentLesson.Number
				lessonNum = &n
				if i == 0 {
					content = fmt.Sprintf("Lesson %d content: %s", n, c)
				}
			}
			chunks = append(chunks, store.CourseChunk{
				Content:      content,
				CourseTitle:  course.Title,
				LessonNumber: lessonNum,
				ChunkIndex:   chunkIndex,
			})
			chunkIndex++
		}
		lessonText = nil
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, "Course Title:"):
			course.Title = strings.TrimSpace(strings.TrimPrefix(line, "Course Title:"))
		case strings.HasPrefix(line, "Course Link:"):
			course.Link = strings.TrimSpace(strings.TrimPrefix(line, "Course Link:"))
		case strings.HasPrefix(line, "Course Instructor:"):
			course.Instructor = strings.TrimSpace(strings.TrimPrefix(line, "Course Instructor:"))
		case strings.HasPrefix(line, "Lesson Link:"):
			if currentLesson != nil {
				currentLesson.Link = strings.TrimSpace(strings.TrimPrefix(line, "Lesson Link:"))
			}
		default:
			if m := lessonMarker.FindStringSubmatch(line); m != nil {
				flushLesson()
				if currentLesson != nil {
					course.Lessons = append(course.Lessons, *currentLesson)
				}
				num, _ := strconv.Atoi(m[1])
				currentLesson = &store.Lesson{Number: num, Title: strings.TrimSpace(m[2])}
			} else if line != "" {
				lessonText = append(lessonText, line)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return store.Course{}, nil, fmt.Errorf("ingest: reading %s: %w", path, err)
	}

	flushLesson()
	if currentLesson != nil {
		course.Lessons = append(course.Lessons, *currentLesson)
	}

	// Course title context on every chunk improves retrieval precision
	// when multiple courses share vocabulary.
	for i := range chunks {
		chunks[i].Content = fmt.Sprintf("Course %s %s", course.Title, chunks[i].Content)
	}

	return course, chunks, nil
}

// ProcessFolder ingests every .txt/.md document in dir, skipping courses
// already cataloged. Returns the number of courses added.
func (p *Processor) ProcessFolder(ctx context.Context, dir string, st *store.Store) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("ingest: reading folder %s: %w", dir, err)
	}

	added := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch ext := strings.ToLower(filepath.Ext(entry.Name())); ext {
		case ".txt", ".md":
		default:
			continue
		}

		path := filepath.Join(dir, entry.Name())
		course, chunks, err := p.ProcessFile(path)
		if err != nil {
			slog.Warn("skipping unreadable course document", "path", path, "error", err)
			continue
		}
		if st.HasCourse(ctx, course.Title) {
			slog.Debug("course already indexed", "course", course.Title)
			continue
		}

		if err := st.AddCourse(ctx, course); err != nil {
			return added, err
		}
		if err := st.AddChunks(ctx, chunks); err != nil {
			return added, err
		}
		slog.Info("indexed course", "course", course.Title, "lessons", len(course.Lessons), "chunks", len(chunks))
		added++
	}
	return added, nil
}
