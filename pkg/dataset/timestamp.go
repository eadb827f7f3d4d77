package dataset

import (
	"fmt"
	"strings"
	"time"
)

// timestampLayout is the ISO-8601 form used in native headers.
const timestampLayout = "2006-01-02T15:04:05-0700"

// Timestamp is a UTC instant with one second resolution, valid for years
// 1900 through 9999. The zero Timestamp is invalid and reports IsZero.
type Timestamp struct {
	t time.Time
}

// NewTimestamp returns the timestamp of a calendar date and time.
func NewTimestamp(year, month, day, hour, minute, second int) (Timestamp, error) {
	t := time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day ||
		t.Hour() != hour || t.Minute() != minute || t.Second() != second {
		return Timestamp{}, &ArgumentError{Name: "timestamp",
			Reason: fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d is not a calendar time", year, month, day, hour, minute, second)}
	}
	return FromTime(t)
}

// FromTime converts t to a Timestamp, truncating to whole seconds.
func FromTime(t time.Time) (Timestamp, error) {
	t = t.UTC().Truncate(time.Second)
	if t.Year() < 1900 || t.Year() > 9999 {
		return Timestamp{}, &ArgumentError{Name: "timestamp", Reason: fmt.Sprintf("year %d outside [1900, 9999]", t.Year())}
	}
	return Timestamp{t: t}, nil
}

// ParseTimestamp parses the header form YYYY-MM-DDTHH:MM:SS-0000. A trailing
// "Z" is accepted in place of the zone offset.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "Z") {
		s = strings.TrimSuffix(s, "Z") + "-0000"
	}
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return Timestamp{}, &ArgumentError{Name: "timestamp", Reason: fmt.Sprintf("%q: %v", s, err)}
	}
	return FromTime(t)
}

// FromYYYYMMDDHHMMSS converts a packed integer such as 20200131235959.
func FromYYYYMMDDHHMMSS(v int64) (Timestamp, error) {
	sec := int(v % 100)
	v /= 100
	minute := int(v % 100)
	v /= 100
	hour := int(v % 100)
	v /= 100
	day := int(v % 100)
	v /= 100
	month := int(v % 100)
	year := int(v / 100)
	return NewTimestamp(year, month, day, hour, minute, sec)
}

// FromIOAPI converts an IOAPI (YYYYDDD, HHMMSS) pair.
func FromIOAPI(yyyyddd, hhmmss int) (Timestamp, error) {
	year, doy := yyyyddd/1000, yyyyddd%1000
	if doy < 1 || doy > 366 {
		return Timestamp{}, &ArgumentError{Name: "yyyyddd", Reason: fmt.Sprintf("day of year %d", doy)}
	}
	t := time.Date(year, 1, 1, hhmmss/10000, hhmmss/100%100, hhmmss%100, 0, time.UTC).AddDate(0, 0, doy-1)
	if t.Year() != year {
		return Timestamp{}, &ArgumentError{Name: "yyyyddd", Reason: fmt.Sprintf("day %d past end of %d", doy, year)}
	}
	return FromTime(t)
}

// Time returns the instant as a UTC time.Time.
func (t Timestamp) Time() time.Time { return t.t }

// IsZero reports whether t is the zero Timestamp.
func (t Timestamp) IsZero() bool { return t.t.IsZero() }

// String returns the header form YYYY-MM-DDTHH:MM:SS-0000.
func (t Timestamp) String() string { return t.t.Format(timestampLayout) }

// YYYYMMDDHHMMSS returns t packed into an integer.
func (t Timestamp) YYYYMMDDHHMMSS() int64 {
	y, m, d := t.t.Date()
	return ((((int64(y)*100+int64(m))*100+int64(d))*100+int64(t.t.Hour()))*100+int64(t.t.Minute()))*100 + int64(t.t.Second())
}

// IOAPI returns t as an IOAPI (YYYYDDD, HHMMSS) pair.
func (t Timestamp) IOAPI() (yyyyddd, hhmmss int) {
	return t.t.Year()*1000 + t.t.YearDay(), t.t.Hour()*10000 + t.t.Minute()*100 + t.t.Second()
}

// hourKey formats t as YYYYMMDDHH for output file names.
func (t Timestamp) hourKey() string { return t.t.Format("2006010215") }

func (t Timestamp) Before(o Timestamp) bool { return t.t.Before(o.t) }
func (t Timestamp) After(o Timestamp) bool  { return t.t.After(o.t) }
func (t Timestamp) Equal(o Timestamp) bool  { return t.t.Equal(o.t) }

// Compare returns -1, 0 or +1 as t is before, equal to or after o.
func (t Timestamp) Compare(o Timestamp) int { return t.t.Compare(o.t) }

// Add returns t+d truncated to seconds. It does not validate the year range.
func (t Timestamp) Add(d time.Duration) Timestamp {
	return Timestamp{t: t.t.Add(d).Truncate(time.Second)}
}

// Sub returns t-o. It saturates for instants more than about 292 years
// apart; use HoursSince for long spans.
func (t Timestamp) Sub(o Timestamp) time.Duration { return t.t.Sub(o.t) }

// HoursSince returns the fractional hours from o to t.
func (t Timestamp) HoursSince(o Timestamp) float64 {
	return float64(t.t.Unix()-o.t.Unix()) / secondsPerHour
}

// hoursUntil returns the whole hours from t to o.
func (t Timestamp) hoursUntil(o Timestamp) int64 {
	return (o.t.Unix() - t.t.Unix()) / secondsPerHour
}

func (t Timestamp) addHours(n int64) Timestamp {
	return Timestamp{t: time.Unix(t.t.Unix()+n*secondsPerHour, 0).UTC()}
}

// TimestepSize is the calendar unit separating consecutive timesteps.
type TimestepSize int

const (
	Hours TimestepSize = iota + 1
	Days
	Months
	Years
)

func (s TimestepSize) String() string {
	switch s {
	case Hours:
		return "hours"
	case Days:
		return "days"
	case Months:
		return "months"
	case Years:
		return "years"
	default:
		return fmt.Sprintf("TimestepSize(%d)", int(s))
	}
}

// ParseTimestepSize accepts the singular or plural unit name.
func ParseTimestepSize(s string) (TimestepSize, error) {
	switch strings.TrimSuffix(strings.ToLower(s), "s") {
	case "hour":
		return Hours, nil
	case "day":
		return Days, nil
	case "month":
		return Months, nil
	case "year":
		return Years, nil
	}
	return 0, &ArgumentError{Name: "timestep_size", Reason: fmt.Sprintf("unknown unit %q", s)}
}

// Hour arithmetic runs on Unix seconds; time.Duration spans only about 292
// years, less than the valid timestamp range.
const secondsPerHour = 3600

// after returns start advanced by n units using calendar arithmetic.
func (s TimestepSize) after(start Timestamp, n int) Timestamp {
	switch s {
	case Days:
		return Timestamp{t: start.t.AddDate(0, 0, n)}
	case Months:
		return Timestamp{t: start.t.AddDate(0, n, 0)}
	case Years:
		return Timestamp{t: start.t.AddDate(n, 0, 0)}
	default:
		return start.addHours(int64(n))
	}
}

// estimate returns an index close to the timestep containing t.
func (s TimestepSize) estimate(start, t Timestamp) int {
	switch s {
	case Days:
		return int((t.t.Unix() - start.t.Unix()) / (24 * secondsPerHour))
	case Months:
		return (t.t.Year()-start.t.Year())*12 + int(t.t.Month()) - int(start.t.Month())
	case Years:
		return t.t.Year() - start.t.Year()
	default:
		return int((t.t.Unix() - start.t.Unix()) / secondsPerHour)
	}
}
