package ntp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrMalformedPacket = errors.New("malformed packet")

var refid = binary.BigEndian.Uint32([]byte(REFID))

// Request holds the parts of a client packet the server looks at. Only Xmt
// affects the reply; the rest is kept for logging.
type Request struct {
	Leap    byte             /* leap indicator */
	Version byte             /* version number */
	Mode    Mode             /* mode */
	Xmt     TimestampEncoded /* transmit timestamp */
}

type TransmitPacket struct {
	Leap    byte /* leap indicator */
	Version byte /* version number */
	Mode    Mode /* mode */
	NtpFieldsEncoded
}

type NtpFieldsEncoded struct {
	Stratum   byte             /* stratum */
	Poll      int8             /* poll interval */
	Precision int8             /* precision */
	Rootdelay ShortEncoded     /* root delay */
	Rootdisp  ShortEncoded     /* root dispersion */
	Refid     ShortEncoded     /* reference ID */
	Reftime   TimestampEncoded /* reference time */
	Org       TimestampEncoded /* origin timestamp */
	Rec       TimestampEncoded /* receive timestamp */
	Xmt       TimestampEncoded /* transmit timestamp */
}

func EncodeTransmitPacket(packet TransmitPacket) []byte {
	firstByte := (packet.Leap << 6) | (packet.Version << 3) | byte(packet.Mode)

	buffer := bytes.NewBuffer(make([]byte, 0, PacketSize))
	binary.Write(buffer, binary.BigEndian, firstByte)
	binary.Write(buffer, binary.BigEndian, &packet.NtpFieldsEncoded)
	return buffer.Bytes()
}

// DecodeRequest reads the header byte and transmit timestamp of a client
// packet. Nothing beyond the length is validated.
func DecodeRequest(encoded []byte) (*Request, error) {
	if len(encoded) < PacketSize {
		return nil, fmt.Errorf("%w: got %d bytes, need %d", ErrMalformedPacket, len(encoded), PacketSize)
	}

	firstByte := encoded[LiVnModePos]
	return &Request{
		Leap:    firstByte >> 6,
		Version: (firstByte >> 3) & 0b111,
		Mode:    Mode(firstByte & 0b111),
		Xmt:     binary.BigEndian.Uint64(encoded[TransmitTimestampPos:]),
	}, nil
}

// EncodeResponse builds a server reply echoing org as the originate timestamp
// and using now for the reference, receive and transmit timestamps.
func EncodeResponse(org TimestampEncoded, now Timestamp) []byte {
	t := now.Encoded()
	return EncodeTransmitPacket(TransmitPacket{
		Leap:    LEAP,
		Version: VERSION,
		Mode:    SERVER,
		NtpFieldsEncoded: NtpFieldsEncoded{
			Stratum:   STRATUM,
			Poll:      POLL,
			Precision: PRECISION,
			Refid:     refid,
			Reftime:   t,
			Org:       org,
			Rec:       t,
			Xmt:       t,
		},
	})
}

// HandleRequest answers a single client packet. The request is not modified
// and the reply is always PacketSize bytes.
func HandleRequest(request []byte, clock Clock) ([]byte, error) {
	decoded, err := DecodeRequest(request)
	if err != nil {
		return nil, err
	}

	now, err := clock.Now()
	if err != nil {
		if errors.Is(err, ErrClockRead) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrClockRead, err)
	}

	return EncodeResponse(decoded.Xmt, now), nil
}
