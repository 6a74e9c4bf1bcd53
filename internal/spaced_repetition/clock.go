package spaced_repetition

import (
	"time"

	"github.com/example/lexigo/pkg/models"
)

// Clock is the source of "today"
type Clock interface {
	Today() models.Date
}

// SystemClock reads the wall clock in a fixed location
type SystemClock struct {
	Location *time.Location
}

// NewSystemClock creates a clock for the named time zone; empty means local time
func NewSystemClock(timezone string) (*SystemClock, error) {
	if timezone == "" {
		return &SystemClock{Location: time.Local}, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &SystemClock{Location: loc}, nil
}

func (c *SystemClock) Today() models.Date {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	return models.DateOf(time.Now().In(loc))
}

// FixedClock always returns the same day
type FixedClock struct {
	Date models.Date
}

func (c *FixedClock) Today() models.Date {
	return c.Date
}
