package loclntp

import (
	"context"
	"errors"
	"log"
	"net"
	"time"

	"github.com/AndrewLester/loclntp/internal/ntp"
	"golang.org/x/sync/errgroup"
)

const MTU = 1300

// Delay between reads after a read error, doubled up to maxReadBackoff while
// the error persists.
const (
	minReadBackoff = 5 * time.Millisecond
	maxReadBackoff = time.Second
)

// Server answers NTP client requests on a single packet connection. Each
// worker reads, answers and sends one datagram at a time, so a slow send only
// holds up the worker that issued it.
type Server struct {
	config Config
	conn   net.PacketConn
	clock  ntp.Clock
	stats  *Stats
}

func NewServer(config Config, conn net.PacketConn, clock ntp.Clock) *Server {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &Server{
		config: config,
		conn:   conn,
		clock:  clock,
		stats:  NewStats(),
	}
}

func (server *Server) Addr() net.Addr {
	return server.conn.LocalAddr()
}

func (server *Server) Stats() *Stats {
	return server.stats
}

func (server *Server) Snapshot() StatsSnapshot {
	snapshot := server.stats.Snapshot()
	snapshot.Address = server.Addr().String()
	return snapshot
}

// Serve runs the workers until ctx is done or the connection is closed. The
// connection is closed when Serve returns.
func (server *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		server.conn.Close()
	}()

	log.Printf("Simple NTP server listening on %s", server.Addr())
	debug("Stratum", ntp.STRATUM, "refid", ntp.REFID, "precision", ntp.Log2ToDouble(ntp.PRECISION), "s",
		"workers", server.config.Workers)

	var group errgroup.Group
	for i := 0; i < server.config.Workers; i++ {
		i := i
		group.Go(func() error {
			return server.worker(i)
		})
	}
	return group.Wait()
}

func (server *Server) worker(i int) error {
	defer debug("Worker", i, "exited")

	packet := make([]byte, MTU)
	backoff := time.Duration(0)

	for {
		n, addr, err := server.conn.ReadFrom(packet)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}

			log.Printf("error reading on %s/udp: %s", server.Addr(), err)
			backoff = nextReadBackoff(backoff)
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		server.exchange(packet[:n], addr)
	}
}

func nextReadBackoff(backoff time.Duration) time.Duration {
	if backoff < minReadBackoff {
		return minReadBackoff
	}
	if backoff *= 2; backoff > maxReadBackoff {
		return maxReadBackoff
	}
	return backoff
}

// exchange answers one datagram and reports the outcome.
func (server *Server) exchange(request []byte, addr net.Addr) {
	server.stats.requests.Add(1)

	if debugEnabled() {
		if decoded, err := ntp.DecodeRequest(request); err == nil {
			debug("Request from", addr, "version", decoded.Version, "mode", decoded.Mode,
				"xmt", ntp.NTPTimestampToTime(decoded.Xmt).UTC())
		}
	}

	response, err := ntp.HandleRequest(request, server.clock)
	if err != nil {
		switch {
		case errors.Is(err, ntp.ErrMalformedPacket):
			server.stats.malformed.Add(1)
			log.Printf("Dropping packet from %s: %v", addr, err)
		case errors.Is(err, ntp.ErrClockRead):
			server.stats.clockFailures.Add(1)
			log.Printf("Dropping packet from %s: %v", addr, err)
		default:
			log.Printf("Error handling packet from %s: %v", addr, err)
		}
		return
	}

	server.report(addr, send(server.conn, response, addr))
}

func (server *Server) report(addr net.Addr, err error) {
	if err != nil {
		server.stats.sendFailures.Add(1)
		log.Printf("Failed to send NTP response: %v", err)
		return
	}

	server.stats.replies.Add(1)
	server.stats.observe(addr, time.Now())
	info("Replied to", addr)
}

// Start listens on the configured address and serves until ctx is done,
// together with the metrics endpoint and control socket when configured.
func Start(ctx context.Context, config Config) error {
	SetLogLevel(config.LogLevel)

	conn, err := Listen(config.Listen, config.TOS)
	if err != nil {
		return err
	}

	server := NewServer(config, conn, SystemClock{})

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return server.Serve(ctx)
	})
	if config.Metrics != "" {
		group.Go(func() error {
			return server.stats.ServeMetrics(ctx, config.Metrics)
		})
	}
	if config.Socket != "" {
		rpcServer := &RPCServer{Socket: config.Socket, Server: server}
		group.Go(func() error {
			return rpcServer.Listen(ctx)
		})
	}
	return group.Wait()
}
