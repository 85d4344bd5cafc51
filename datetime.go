package quickle

import "time"

// Date is a naive (timezone-free) calendar date.
type Date struct {
	Year  int16
	Month uint8
	Day   uint8
}

// Time is a time-of-day value, optionally attached to a timezone. Fold
// marks the second occurrence of an ambiguous local time across a DST
// transition, matching Python 3.6+'s datetime.fold.
type Time struct {
	Hour        uint8
	Minute      uint8
	Second      uint8
	Microsecond uint32
	Fold        bool
	Zone        TZInfo // nil for a naive time
}

// DateTime combines Date and Time into a single value, as the wire format
// does (DATETIME/DATETIME_TZ carry both in one opcode rather than nesting).
type DateTime struct {
	Year        int16
	Month       uint8
	Day         uint8
	Hour        uint8
	Minute      uint8
	Second      uint8
	Microsecond uint32
	Fold        bool
	Zone        TZInfo
}

// Duration is a calendar-style elapsed-time value (Python's timedelta),
// normalized the same way: Seconds in [0,86399], Microseconds in
// [0,999999], with Days absorbing the sign.
type Duration struct {
	Days         int32
	Seconds      int32
	Microseconds int32
}

// DurationFromGo converts a time.Duration into the normalized Days/Seconds/
// Microseconds form.
func DurationFromGo(d time.Duration) Duration {
	usecTotal := d.Microseconds()
	const usecPerDay = 86400 * 1_000_000
	days := usecTotal / usecPerDay
	rem := usecTotal % usecPerDay
	if rem < 0 {
		rem += usecPerDay
		days--
	}
	return Duration{
		Days:         int32(days),
		Seconds:      int32(rem / 1_000_000),
		Microseconds: int32(rem % 1_000_000),
	}
}

// ToGo converts back to a time.Duration.
func (d Duration) ToGo() time.Duration {
	total := int64(d.Days)*86400 + int64(d.Seconds)
	return time.Duration(total)*time.Second + time.Duration(d.Microseconds)*time.Microsecond
}

// TZInfo is the sum type of the three timezone representations the wire
// format supports: the UTC singleton, a fixed offset, and a named IANA
// zone looked up lazily by key.
type TZInfo interface {
	isTZInfo()
}

// UTC is the singleton UTC timezone (TIMEZONE_UTC on the wire).
type UTC struct{}

func (UTC) isTZInfo() {}

// FixedZone is a constant UTC offset (TIMEZONE on the wire).
type FixedZone struct {
	Offset time.Duration
}

func (FixedZone) isTZInfo() {}

// ZoneInfo is a named IANA timezone (ZONEINFO on the wire), carried as its
// key rather than a resolved *time.Location so decode never depends on the
// host's tzdata being present or current.
type ZoneInfo struct {
	Key string
}

func (ZoneInfo) isTZInfo() {}

// Location resolves Key against the host's tzdata.
func (z ZoneInfo) Location() (*time.Location, error) {
	return time.LoadLocation(z.Key)
}

// encodeTZOffset packs a UTC offset into the wire's 24-bit seconds/24-bit
// microseconds pair. The top bit of the seconds word marks a "negative day"
// the way a normalized timedelta would: an offset of -1h is represented as
// seconds=82800 (23h) with the negative-day bit set, the same normalization
// Duration itself uses. This keeps TIMEZONE's payload representable for any
// offset within +/-24h, which covers every real-world UTC offset.
func encodeTZOffset(off time.Duration) (secWord, usecWord uint32) {
	totalUsec := off.Microseconds()
	secs := totalUsec / 1_000_000
	usecs := totalUsec % 1_000_000
	if usecs < 0 {
		usecs += 1_000_000
		secs--
	}
	negDay := false
	if secs < 0 {
		negDay = true
		secs += 86400
	}
	secWord = uint32(secs)
	if negDay {
		secWord |= 1 << 23
	}
	usecWord = uint32(usecs)
	return
}

func decodeTZOffset(secWord, usecWord uint32) time.Duration {
	negDay := secWord&(1<<23) != 0
	secs := int64(secWord &^ (1 << 23))
	if negDay {
		secs -= 86400
	}
	usecs := int64(usecWord)
	return time.Duration(secs)*time.Second + time.Duration(usecs)*time.Microsecond
}
