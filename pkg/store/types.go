package store

// Course is the catalog entry for one ingested course.
type Course struct {
	Title      string   `json:"title"`
	Link       string   `json:"link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

// Lesson is one entry of a course outline.
type Lesson struct {
	Number int    `json:"lesson_number"`
	Title  string `json:"lesson_title"`
	Link   string `json:"lesson_link,omitempty"`
}

// CourseChunk is one indexed piece of course content.
type CourseChunk struct {
	Content      string
	CourseTitle  string
	LessonNumber *int // nil when the chunk precedes any lesson marker
	ChunkIndex   int
}

// ChunkMetadata identifies where a retrieved chunk came from.
type ChunkMetadata struct {
	CourseTitle  string
	LessonNumber *int
	ChunkIndex   int
}

// SearchResults is the outcome of one content search. Either the three
// slices are populated (always the same length, relevance-ranked, lower
// distance first) or Error carries a terminal failure message and all
// three are empty. The two variants are mutually exclusive.
type SearchResults struct {
	Documents []string
	Metadata  []ChunkMetadata
	Distances []float64
	Error     string
}

// ErrorResults builds the error variant.
func ErrorResults(msg string) SearchResults {
	return SearchResults{Error: msg}
}

// IsEmpty reports whether the result set holds no documents and no error.
func (r SearchResults) IsEmpty() bool {
	return r.Error == "" && len(r.Documents) == 0
}
