package utils

import (
	"time"
)

// UnixTimeToTime converts a Unix timestamp to a time.Time object.
func UnixTimeToTime(unixTime int64) time.Time {
	return time.Unix(unixTime, 0)
}

// TimeToUnix is the inverse, used when handing timestamps to page clients.
func TimeToUnix(t time.Time) int64 {
	return t.Unix()
}
