package util

import (
	"fmt"
	"time"
)

var relativeUnits = []struct {
	limit time.Duration
	unit  time.Duration
	short string
}{
	{time.Hour, time.Minute, "m"},
	{24 * time.Hour, time.Hour, "h"},
	{7 * 24 * time.Hour, 24 * time.Hour, "d"},
	{30 * 24 * time.Hour, 7 * 24 * time.Hour, "w"},
}

// RelativeTimeShort formats a time as a short relative string (e.g., "2h ago")
func RelativeTimeShort(t time.Time) string {
	return relativeTime(time.Since(t), t)
}

func relativeTime(diff time.Duration, t time.Time) string {
	if diff < time.Minute {
		return "now"
	}
	for _, u := range relativeUnits {
		if diff < u.limit {
			return fmt.Sprintf("%d%s ago", int(diff/u.unit), u.short)
		}
	}
	return t.Format("Jan 2")
}
