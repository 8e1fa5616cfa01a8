package loclntp

import (
	"testing"
	"time"

	"github.com/AndrewLester/loclntp/internal/ntp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemClockMatchesWallClock(t *testing.T) {
	now, err := SystemClock{}.Now()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), now.Time(), time.Second)
}

func TestSystemClockSecondsAdvance(t *testing.T) {
	if testing.Short() {
		t.Skip("sleeps for a second")
	}

	first, err := SystemClock{}.Now()
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)
	second, err := SystemClock{}.Now()
	require.NoError(t, err)

	assert.GreaterOrEqual(t, second.Seconds-first.Seconds, uint32(1))
}

func TestSystemClockAnswersRequests(t *testing.T) {
	request := make([]byte, ntp.PacketSize)
	response, err := ntp.HandleRequest(request, SystemClock{})
	require.NoError(t, err)
	assert.Len(t, response, ntp.PacketSize)
}
