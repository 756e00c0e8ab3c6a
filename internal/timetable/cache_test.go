package timetable

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	calls   int
	lessons []Lesson
	err     error
}

func (f *fakeSource) FetchTimetable(_ context.Context, _ Window) ([]Lesson, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.lessons, nil
}

func testWindow(startDay int) Window {
	return Window{
		Start: Date{Year: 2024, Month: time.March, Day: startDay},
		End:   Date{Year: 2024, Month: time.April, Day: startDay},
	}
}

func TestCacheFetchesOnFirstCall(t *testing.T) {
	src := &fakeSource{lessons: []Lesson{{Subject: "Math"}}}
	c := NewCache(src, 120*time.Second)

	lessons, err := c.Lessons(context.Background(), testWindow(1), time.Now())
	require.NoError(t, err)
	assert.Len(t, lessons, 1)
	assert.Equal(t, 1, src.calls)
}

func TestCacheHitWithinTTL(t *testing.T) {
	src := &fakeSource{lessons: []Lesson{{Subject: "Math"}, {Subject: "History"}}}
	c := NewCache(src, 120*time.Second)
	w := testWindow(1)
	t1 := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

	first, err := c.Lessons(context.Background(), w, t1)
	require.NoError(t, err)

	second, err := c.Lessons(context.Background(), w, t1.Add(60*time.Second))
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls, "second call within TTL must not hit the source")
	assert.Equal(t, first, second)
}

func TestCacheMissOnExpiry(t *testing.T) {
	src := &fakeSource{lessons: []Lesson{{Subject: "Math"}}}
	c := NewCache(src, 120*time.Second)
	w := testWindow(1)
	t1 := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

	_, err := c.Lessons(context.Background(), w, t1)
	require.NoError(t, err)

	_, err = c.Lessons(context.Background(), w, t1.Add(121*time.Second))
	require.NoError(t, err)

	assert.Equal(t, 2, src.calls)
}

func TestCacheMissOnWindowChange(t *testing.T) {
	src := &fakeSource{lessons: []Lesson{{Subject: "Math"}}}
	c := NewCache(src, 120*time.Second)
	now := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

	_, err := c.Lessons(context.Background(), testWindow(1), now)
	require.NoError(t, err)

	_, err = c.Lessons(context.Background(), testWindow(2), now)
	require.NoError(t, err)

	assert.Equal(t, 2, src.calls, "a different window always misses, TTL or not")
}

// slowSource stalls every fetch so that concurrent misses overlap.
type slowSource struct {
	calls   atomic.Int32
	delay   time.Duration
	lessons []Lesson
}

func (s *slowSource) FetchTimetable(_ context.Context, _ Window) ([]Lesson, error) {
	s.calls.Add(1)
	time.Sleep(s.delay)
	return s.lessons, nil
}

func TestCacheConcurrentMissesSingleFetch(t *testing.T) {
	src := &slowSource{delay: 50 * time.Millisecond, lessons: []Lesson{{Subject: "Math"}}}
	c := NewCache(src, 120*time.Second)
	w := testWindow(1)

	const goroutines = 8
	results := make(chan error, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lessons, err := c.Lessons(context.Background(), w, time.Now())
			if err == nil && len(lessons) != 1 {
				err = errors.New("unexpected lesson count")
			}
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	for err := range results {
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, src.calls.Load(),
		"concurrent misses for the same window must collapse into one fetch")
}

func TestCacheMissAtExactExpiry(t *testing.T) {
	src := &fakeSource{lessons: []Lesson{{Subject: "Math"}}}
	c := NewCache(src, 120*time.Second)
	w := testWindow(1)
	t1 := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

	_, err := c.Lessons(context.Background(), w, t1)
	require.NoError(t, err)

	// Validity is now < expiresAt, so the instant of expiry itself misses.
	_, err = c.Lessons(context.Background(), w, t1.Add(120*time.Second))
	require.NoError(t, err)

	assert.Equal(t, 2, src.calls)
}

func TestCacheFetchFailurePreservesState(t *testing.T) {
	src := &fakeSource{lessons: []Lesson{{Subject: "Math"}}}
	c := NewCache(src, 120*time.Second)
	w1 := testWindow(1)
	t1 := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)

	primed, err := c.Lessons(context.Background(), w1, t1)
	require.NoError(t, err)

	// A failing fetch for another window must not poison the stored slot.
	src.err = errors.New("login failed")
	_, err = c.Lessons(context.Background(), testWindow(2), t1.Add(time.Second))
	require.Error(t, err)

	src.err = nil
	again, err := c.Lessons(context.Background(), w1, t1.Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, primed, again)
	assert.Equal(t, 2, src.calls, "w1 within TTL must still be served from cache")
}
