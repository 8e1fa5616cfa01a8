package loclntp

import (
	"fmt"
	"log"
	"net"

	"golang.org/x/net/ipv4"
)

// TransportError reports a response that could not be handed to the network.
type TransportError struct {
	Addr net.Addr
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("send to %s: %v", e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Listen binds the UDP socket the server answers on. A non-zero tos is set as
// the IPv4 TOS byte of every reply; failing to set it is only logged.
func Listen(address string, tos int) (net.PacketConn, error) {
	conn, err := net.ListenPacket("udp", address)
	if err != nil {
		return nil, fmt.Errorf("can't listen on %s/udp: %w", address, err)
	}

	if tos > 0 {
		if err := ipv4.NewPacketConn(conn).SetTOS(tos); err != nil {
			log.Printf("Could not set TOS %d on %s: %v", tos, conn.LocalAddr(), err)
		} else {
			debug("TOS set to", tos)
		}
	}

	return conn, nil
}

func send(conn net.PacketConn, response []byte, addr net.Addr) error {
	if _, err := conn.WriteTo(response, addr); err != nil {
		return &TransportError{Addr: addr, Err: err}
	}
	return nil
}
