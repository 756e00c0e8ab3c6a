package timetable

import "context"

// Lesson is the raw timetable record as returned by the Pronote backend.
// Field pairs like Subject/SubjectName exist because different backend
// versions populate different aliases; display fallback is handled when
// building the feed. Start and End are timestamp strings that may be
// empty, naive (no offset), or offset-aware.
type Lesson struct {
	Start         string `json:"start"`
	End           string `json:"end"`
	Subject       string `json:"subject"`
	SubjectName   string `json:"subject_name"`
	Classroom     string `json:"classroom"`
	ClassroomName string `json:"classroom_name"`
	Teacher       string `json:"teacher"`
	TeacherName   string `json:"teacher_name"`
	GroupName     string `json:"group_name"`
	Canceled      bool   `json:"canceled"`
}

// Source produces the lessons for a date window. Implementations own
// authentication, transport and timeouts; a failed fetch returns an opaque
// error and is never retried here.
type Source interface {
	FetchTimetable(ctx context.Context, w Window) ([]Lesson, error)
}
