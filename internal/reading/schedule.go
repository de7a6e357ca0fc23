package reading

import "time"

// deliveryHours maps an auto-send frequency (deliveries per day) to the fixed
// set of local hours at which a chunk is delivered.
var deliveryHours = map[int][]int{
	1:  {12},
	2:  {9, 17},
	4:  {8, 12, 16, 20},
	6:  {7, 10, 13, 16, 19, 22},
	12: {7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21},
}

// DueNow reports whether a sweep tick at `now` falls on a delivery slot for
// the given frequency, evaluated in the user's timezone. Unknown timezones
// fall back to UTC; unknown frequencies are never due.
func DueNow(frequency int, tz string, now time.Time) bool {
	hours, ok := deliveryHours[frequency]
	if !ok {
		return false
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	hour := now.In(loc).Hour()
	for _, h := range hours {
		if h == hour {
			return true
		}
	}
	return false
}

// ValidFrequency reports whether perDay is a supported auto-send frequency.
func ValidFrequency(perDay int) bool {
	_, ok := deliveryHours[perDay]
	return ok
}
