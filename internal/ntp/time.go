package ntp

import (
	"errors"
	"math"
	"time"
)

const (
	EraLength     int64 = 4_294_967_296 // 2^32
	UnixEraOffset int64 = 2_208_988_800 // 1970 - 1900 in seconds
)

var ErrClockRead = errors.New("could not read system clock")

// Timestamp is an NTP fixed point time: whole seconds since 1900 and a
// fraction of a second scaled to 2^32.
type Timestamp struct {
	Seconds  uint32
	Fraction uint32
}

// Clock supplies the current time for a response. Implementations must be
// safe for concurrent use.
type Clock interface {
	Now() (Timestamp, error)
}

type ClockFunc func() (Timestamp, error)

func (f ClockFunc) Now() (Timestamp, error) {
	return f()
}

// TimestampFromUnixMilli converts a millisecond Unix time. Seconds wrap at
// 2^32 (year 2036) without any era handling.
func TimestampFromUnixMilli(millis int64) Timestamp {
	seconds := millis/1000 + UnixEraOffset
	remainder := millis % 1000
	if remainder < 0 {
		remainder += 1000
		seconds--
	}
	return Timestamp{
		Seconds:  uint32(seconds),
		Fraction: uint32((remainder << 32) / 1000),
	}
}

func TimestampFromTime(t time.Time) Timestamp {
	return TimestampFromUnixMilli(t.UnixMilli())
}

func TimestampFromEncoded(encoded TimestampEncoded) Timestamp {
	return Timestamp{
		Seconds:  uint32(encoded >> 32),
		Fraction: uint32(encoded),
	}
}

func (t Timestamp) Encoded() TimestampEncoded {
	return TimestampEncoded(t.Seconds)<<32 | TimestampEncoded(t.Fraction)
}

func (t Timestamp) Time() time.Time {
	return NTPTimestampToTime(t.Encoded())
}

func Log2ToDouble(a int8) float64 {
	if a < 0 {
		return 1.0 / float64(int64(1)<<-a)
	}
	return float64(int64(1) << a)
}

func NTPTimestampToTime(ntpTimestamp TimestampEncoded) time.Time {
	Sec := int64(ntpTimestamp >> 32)
	Usec := int64(math.Round(float64(ntpTimestamp&0xffffffff) / float64(EraLength) * 1e6))
	Sec -= UnixEraOffset
	return time.Unix(Sec, Usec*1e3)
}
