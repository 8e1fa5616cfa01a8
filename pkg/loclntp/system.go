package loclntp

import (
	"fmt"

	"github.com/AndrewLester/loclntp/internal/ntp"
	"golang.org/x/sys/unix"
)

// SystemClock reads CLOCK_REALTIME at millisecond resolution.
type SystemClock struct{}

func (SystemClock) Now() (ntp.Timestamp, error) {
	var unixTime unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_REALTIME, &unixTime); err != nil {
		return ntp.Timestamp{}, fmt.Errorf("%w: %v", ntp.ErrClockRead, err)
	}
	sec, nsec := unixTime.Unix()
	return ntp.TimestampFromUnixMilli(sec*1000 + nsec/1e6), nil
}
