package ntp

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = Timestamp{Seconds: 3_913_056_000, Fraction: 0x12345678}

func fixedClock() Clock {
	return ClockFunc(func() (Timestamp, error) {
		return fixedNow, nil
	})
}

func clientPacket(seconds, fraction uint32) []byte {
	packet := make([]byte, PacketSize)
	packet[LiVnModePos] = 0x23 // LI=0, VN=4, Mode=3
	binary.BigEndian.PutUint32(packet[TransmitTimestampPos:], seconds)
	binary.BigEndian.PutUint32(packet[TransmitTimestampPos+4:], fraction)
	return packet
}

func TestCheckPosition(t *testing.T) {
	checkList := map[int]int{
		LiVnModePos:           0,
		StratumPos:            1,
		PollPos:               2,
		PrecisionPos:          3,
		RootDelayPos:          4,
		RootDispersionPos:     8,
		ReferenceIDPos:        12,
		ReferenceTimestampPos: 16,
		OriginTimestampPos:    24,
		ReceiveTimestampPos:   32,
		TransmitTimestampPos:  40,
	}
	for k, v := range checkList {
		if k != v {
			t.Errorf("position check error expect:%d, get:%d", k, v)
		}
	}
}

func TestHandleRequestEchoesTransmitTimestamp(t *testing.T) {
	cases := [][2]uint32{
		{0, 0},
		{1, 0x80000000},
		{0xffffffff, 0xffffffff},
		{3_913_055_999, 0x00000001},
		{0xdeadbeef, 0xcafef00d},
	}

	for _, c := range cases {
		response, err := HandleRequest(clientPacket(c[0], c[1]), fixedClock())
		require.NoError(t, err)
		assert.Equal(t, c[0], binary.BigEndian.Uint32(response[OriginTimestampPos:]))
		assert.Equal(t, c[1], binary.BigEndian.Uint32(response[OriginTimestampPos+4:]))
	}
}

func TestHandleRequestEndToEndBytes(t *testing.T) {
	request := make([]byte, PacketSize)
	copy(request[TransmitTimestampPos:], []byte{0x00, 0x00, 0x00, 0x01, 0x80, 0x00, 0x00, 0x00})

	response, err := HandleRequest(request, fixedClock())
	require.NoError(t, err)

	want := make([]byte, PacketSize)
	copy(want, []byte{0x1c, 0x01, 0x06, 0xec})
	copy(want[ReferenceIDPos:], "LOCL")
	for _, pos := range []int{ReferenceTimestampPos, ReceiveTimestampPos, TransmitTimestampPos} {
		binary.BigEndian.PutUint64(want[pos:], fixedNow.Encoded())
	}
	copy(want[OriginTimestampPos:], []byte{0x00, 0x00, 0x00, 0x01, 0x80, 0x00, 0x00, 0x00})

	if diff := cmp.Diff(want, response); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleRequestFixedFields(t *testing.T) {
	request := clientPacket(42, 42)
	for i := 0; i < TransmitTimestampPos; i++ {
		request[i] = 0xff
	}

	response, err := HandleRequest(request, fixedClock())
	require.NoError(t, err)

	assert.Equal(t, byte(0x1c), response[LiVnModePos])
	assert.Equal(t, byte(1), response[StratumPos])
	assert.Equal(t, byte(6), response[PollPos])
	assert.Equal(t, byte(0xec), response[PrecisionPos])
	assert.Equal(t, make([]byte, 8), response[RootDelayPos:ReferenceIDPos])
	assert.Equal(t, []byte("LOCL"), response[ReferenceIDPos:ReferenceTimestampPos])
}

func TestHandleRequestTimestampsMatch(t *testing.T) {
	response, err := HandleRequest(clientPacket(7, 9), fixedClock())
	require.NoError(t, err)

	reference := response[ReferenceTimestampPos : ReferenceTimestampPos+8]
	assert.Equal(t, reference, response[ReceiveTimestampPos:ReceiveTimestampPos+8])
	assert.Equal(t, reference, response[TransmitTimestampPos:TransmitTimestampPos+8])
	assert.Equal(t, fixedNow.Encoded(), binary.BigEndian.Uint64(reference))
}

func TestHandleRequestReadsClockOnce(t *testing.T) {
	calls := 0
	clock := ClockFunc(func() (Timestamp, error) {
		calls++
		return Timestamp{Seconds: uint32(calls), Fraction: uint32(calls)}, nil
	})

	response, err := HandleRequest(clientPacket(0, 0), clock)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, uint64(0x0000000100000001), binary.BigEndian.Uint64(response[TransmitTimestampPos:]))
}

func TestHandleRequestMalformed(t *testing.T) {
	for _, size := range []int{0, 1, 40, 44, PacketSize - 1} {
		response, err := HandleRequest(make([]byte, size), fixedClock())
		assert.Nil(t, response, "size %d", size)
		assert.ErrorIs(t, err, ErrMalformedPacket, "size %d", size)
	}

	_, err := HandleRequest(nil, fixedClock())
	assert.ErrorIs(t, err, ErrMalformedPacket)
}

func TestHandleRequestLongPacket(t *testing.T) {
	request := append(clientPacket(5, 6), make([]byte, 20)...)
	original := append([]byte(nil), request...)

	response, err := HandleRequest(request, fixedClock())
	require.NoError(t, err)
	assert.Len(t, response, PacketSize)
	assert.Equal(t, original, request)
	assert.Equal(t, uint64(5)<<32|6, binary.BigEndian.Uint64(response[OriginTimestampPos:]))
}

func TestHandleRequestClockFailure(t *testing.T) {
	broken := errors.New("clock_gettime: operation not permitted")
	clock := ClockFunc(func() (Timestamp, error) {
		return Timestamp{}, broken
	})

	response, err := HandleRequest(clientPacket(1, 1), clock)
	assert.Nil(t, response)
	assert.ErrorIs(t, err, ErrClockRead)
	assert.ErrorContains(t, err, broken.Error())
}

func TestDecodeRequest(t *testing.T) {
	request, err := DecodeRequest(clientPacket(1, 0x80000000))
	require.NoError(t, err)
	assert.Equal(t, &Request{
		Leap:    0,
		Version: 4,
		Mode:    CLIENT,
		Xmt:     0x0000000180000000,
	}, request)
	assert.Equal(t, "client", request.Mode.String())
}

func TestEncodeTransmitPacket(t *testing.T) {
	encoded := EncodeTransmitPacket(TransmitPacket{Leap: 3, Version: 4, Mode: CLIENT})
	require.Len(t, encoded, PacketSize)
	assert.Equal(t, byte(0xe3), encoded[LiVnModePos])
}
