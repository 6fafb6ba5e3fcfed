package timesync

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	// IANA names must resolve on device images without zoneinfo.
	_ "time/tzdata"
)

// ParseZone accepts either a POSIX fixed-offset rule such as "JST-9",
// "UTC0" or "IST-5:30", or an IANA name such as "Asia/Tokyo".
// POSIX offsets are west-positive, so "JST-9" is UTC+9.
func ParseZone(tz string) (*time.Location, error) {
	if tz == "" {
		return nil, fmt.Errorf("%w: empty", ErrTimezone)
	}
	if loc, ok := parsePOSIX(tz); ok {
		return loc, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTimezone, err)
	}
	return loc, nil
}

func parsePOSIX(tz string) (*time.Location, bool) {
	i := 0
	for i < len(tz) && (tz[i] >= 'A' && tz[i] <= 'Z' || tz[i] >= 'a' && tz[i] <= 'z') {
		i++
	}
	if i < 3 || i == len(tz) {
		return nil, false
	}
	name, rest := tz[:i], tz[i:]
	sign := 1
	switch rest[0] {
	case '-':
		sign, rest = -1, rest[1:]
	case '+':
		rest = rest[1:]
	}
	hh, mm := rest, "0"
	if j := strings.IndexByte(rest, ':'); j >= 0 {
		hh, mm = rest[:j], rest[j+1:]
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 24 {
		return nil, false
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return nil, false
	}
	// POSIX offsets are hours west of UTC.
	offset := -sign * (h*3600 + m*60)
	return time.FixedZone(name, offset), true
}
