package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestForwardWindow(t *testing.T) {
	today := Date{Year: 2024, Month: time.March, Day: 4}

	w := ForwardWindow(today, 2)

	assert.Equal(t, Date{Year: 2024, Month: time.February, Day: 26}, w.Start, "window starts one week back")
	assert.Equal(t, Date{Year: 2024, Month: time.March, Day: 18}, w.End)
}

func TestWindowEqualityByValue(t *testing.T) {
	a := ForwardWindow(Date{Year: 2024, Month: time.March, Day: 4}, 8)
	b := ForwardWindow(Date{Year: 2024, Month: time.March, Day: 4}, 8)
	c := ForwardWindow(Date{Year: 2024, Month: time.March, Day: 4}, 9)

	assert.True(t, a == b)
	assert.False(t, a == c)
}

func TestDateOfUsesWallClockDate(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	assert.NoError(t, err)

	// Just past midnight in Paris is still the previous day in UTC; the
	// window must follow the configured zone's calendar.
	now := time.Date(2024, time.March, 4, 0, 30, 0, 0, paris)
	assert.Equal(t, Date{Year: 2024, Month: time.March, Day: 4}, DateOf(now))
}

func TestDateAddDaysAcrossMonth(t *testing.T) {
	d := Date{Year: 2024, Month: time.February, Day: 28}
	assert.Equal(t, Date{Year: 2024, Month: time.February, Day: 29}, d.AddDays(1), "2024 is a leap year")
	assert.Equal(t, Date{Year: 2024, Month: time.March, Day: 1}, d.AddDays(2))
}

func TestDateString(t *testing.T) {
	d := Date{Year: 2024, Month: time.March, Day: 4}
	assert.Equal(t, "2024-03-04", d.String())
}
