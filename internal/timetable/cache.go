package timetable

import (
	"context"
	"sync"
	"time"

	appLog "github.com/iimraane/pronote-ics-sync/internal/log"
)

// Cache is a single-slot read-through cache in front of a Source. It holds
// the most recently fetched window and serves it until the TTL elapses or a
// different window is requested. One slot is enough: the service serves one
// recurring window shape per process, and Pronote logins are costly, so the
// point is simply to not hit the backend on every calendar-client poll.
type Cache struct {
	src Source
	ttl time.Duration

	mu        sync.Mutex
	hasWindow bool
	window    Window
	lessons   []Lesson
	expiresAt time.Time
}

// NewCache creates an empty cache; the first Lessons call always fetches.
func NewCache(src Source, ttl time.Duration) *Cache {
	return &Cache{src: src, ttl: ttl}
}

// Lessons returns the lessons for w, fetching from the source only when the
// stored result is missing, expired, or for a different window.
//
// The mutex is held across the whole check-fetch-replace sequence, so
// concurrent misses collapse into a single upstream fetch and readers never
// observe partially replaced state. On fetch failure the stored state is
// left untouched and the error is returned to the caller.
func (c *Cache) Lessons(ctx context.Context, w Window, now time.Time) ([]Lesson, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasWindow && c.window == w && now.Before(c.expiresAt) {
		appLog.Debug("timetable cache hit", "window", w, "expires_at", c.expiresAt.Format(time.RFC3339))
		return c.lessons, nil
	}

	appLog.Info("timetable cache miss, fetching", "window", w)
	lessons, err := c.src.FetchTimetable(ctx, w)
	if err != nil {
		return nil, err
	}

	c.hasWindow = true
	c.window = w
	c.lessons = lessons
	c.expiresAt = now.Add(c.ttl)

	appLog.Info("timetable refreshed", "window", w, "lesson_count", len(lessons), "ttl", c.ttl)
	return lessons, nil
}
