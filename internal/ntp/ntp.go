package ntp

type TimestampEncoded = uint64

type ShortEncoded = uint32

type Mode byte

const (
	RESERVED Mode = iota
	SYMMETRIC_ACTIVE
	SYMMETRIC_PASSIVE
	CLIENT
	SERVER
	BROADCAST_SERVER
	BROADCAST_CLIENT
	RESERVED_PRIVATE_USE
)

func (m Mode) String() string {
	switch m {
	case RESERVED:
		return "reserved"
	case SYMMETRIC_ACTIVE:
		return "symmetric active"
	case SYMMETRIC_PASSIVE:
		return "symmetric passive"
	case CLIENT:
		return "client"
	case SERVER:
		return "server"
	case BROADCAST_SERVER:
		return "broadcast server"
	case BROADCAST_CLIENT:
		return "broadcast client"
	default:
		return "private"
	}
}

const (
	Port = "123" // NTP port number

	PacketSize = 48
)

// Fields written into every response.
const (
	LEAP      byte = 0   // no warning
	VERSION   byte = 3   // NTPv3 layout, readable by v4 clients
	STRATUM   byte = 1   // primary reference
	POLL      int8 = 6   // log2 s
	PRECISION int8 = -20 // 0xEC, log2 s

	REFID = "LOCL"
)

// Byte offsets within a packet.
const (
	LiVnModePos           = 0
	StratumPos            = 1
	PollPos               = 2
	PrecisionPos          = 3
	RootDelayPos          = 4
	RootDispersionPos     = 8
	ReferenceIDPos        = 12
	ReferenceTimestampPos = 16
	OriginTimestampPos    = 24
	ReceiveTimestampPos   = 32
	TransmitTimestampPos  = 40
)
