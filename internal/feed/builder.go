package feed

import (
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	appLog "github.com/iimraane/pronote-ics-sync/internal/log"
	"github.com/iimraane/pronote-ics-sync/internal/timetable"
)

const (
	prodID = "-//Pronote ICS Sync//pronote-ics-sync//EN"

	// defaultTitle is used when the backend provides no subject at all.
	defaultTitle = "Lesson"

	// defaultDescription fills the description of a lesson carrying no
	// teacher, room or cancellation details.
	defaultDescription = "Session"
)

// Builder turns raw lessons into a serialized iCalendar document.
type Builder struct {
	loc *time.Location
}

// NewBuilder creates a Builder emitting events in the given display zone.
func NewBuilder(loc *time.Location) *Builder {
	return &Builder{loc: loc}
}

// Build constructs the calendar document for the given lessons. Lessons
// without a resolvable start or end are skipped entirely; a malformed
// record never aborts the build.
func (b *Builder) Build(lessons []timetable.Lesson) []byte {
	cal := ics.NewCalendar()
	cal.SetProductId(prodID)
	cal.SetVersion("2.0")

	skipped := 0
	for _, lesson := range lessons {
		start := NormalizeTime(lesson.Start, b.loc)
		end := NormalizeTime(lesson.End, b.loc)
		if start == nil || end == nil {
			skipped++
			continue
		}

		title := firstNonEmpty(lesson.Subject, lesson.SubjectName, defaultTitle)
		room := firstNonEmpty(lesson.Classroom, lesson.ClassroomName)
		teacher := firstNonEmpty(lesson.Teacher, lesson.TeacherName)

		summary := title
		if lesson.GroupName != "" {
			summary = title + " (" + lesson.GroupName + ")"
		}

		ev := cal.AddEvent(EventUID(*start, title, room, teacher))
		ev.SetDtStampTime(*start)
		ev.SetStartAt(*start)
		ev.SetEndAt(*end)
		ev.SetSummary(summary)
		ev.SetDescription(description(teacher, room, lesson.Canceled))
		if room != "" {
			ev.SetLocation(room)
		}
		if lesson.Canceled {
			ev.SetStatus(ics.ObjectStatusCancelled)
		} else {
			ev.SetStatus(ics.ObjectStatusConfirmed)
		}
	}

	if skipped > 0 {
		appLog.Info("feed build skipped lessons without usable times", "skipped", skipped, "total", len(lessons))
	}

	return []byte(cal.Serialize())
}

// description joins the lines that apply to this lesson; a lesson with no
// details still gets a placeholder so the field is never empty.
func description(teacher, room string, canceled bool) string {
	lines := make([]string, 0, 3)
	if teacher != "" {
		lines = append(lines, "Teacher: "+teacher)
	}
	if room != "" {
		lines = append(lines, "Room: "+room)
	}
	if canceled {
		lines = append(lines, "Warning: this lesson has been canceled")
	}
	if len(lines) == 0 {
		return defaultDescription
	}
	return strings.Join(lines, "\n")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
