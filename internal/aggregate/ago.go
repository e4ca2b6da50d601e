package aggregate

import (
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

var agoMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: "just now", DivBy: time.Second},
	{D: time.Hour, Format: "%d min %s", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "1 hour %s", DivBy: 1},
	{D: humanize.Day, Format: "%d hours %s", DivBy: time.Hour},
	{D: 2 * humanize.Day, Format: "1 day %s", DivBy: 1},
	{D: math.MaxInt64, Format: "%d days %s", DivBy: humanize.Day},
}

// CreatedAgo renders how long ago a task was created relative to now:
// "just now", "5 min ago", "1 hour ago", "3 days ago".
func CreatedAgo(createdAt, now time.Time) string {
	if !createdAt.Before(now) {
		return "just now"
	}
	return humanize.CustomRelTime(createdAt, now, "ago", "from now", agoMagnitudes)
}
