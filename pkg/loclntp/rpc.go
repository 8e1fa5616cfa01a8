package loclntp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/rpc"
	"os"
	"time"
)

var ErrSocketInUse = errors.New("control socket is served by another process")

type RPCServer struct {
	Socket string
	Server *Server
}

// Listen serves the control socket until ctx is done. A stale socket file
// left by a previous run is removed first; a live one is left alone.
func (s *RPCServer) Listen(ctx context.Context) error {
	server := rpc.NewServer()
	if err := server.Register(s); err != nil {
		return err
	}

	if conn, err := net.DialTimeout("unix", s.Socket, time.Second); err == nil {
		conn.Close()
		return fmt.Errorf("%w: %s", ErrSocketInUse, s.Socket)
	}

	err := os.Remove(s.Socket)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("bind error: %w", err)
	}
	l, err := net.Listen("unix", s.Socket)
	if err != nil {
		return fmt.Errorf("listen error: %w", err)
	}

	go func() {
		<-ctx.Done()
		l.Close()
	}()

	log.Println("RPC listening on", s.Socket)

	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go server.ServeConn(conn)
	}
}

func (s *RPCServer) FetchStats(args int, reply *StatsSnapshot) error {
	*reply = s.Server.Snapshot()
	return nil
}

func (s *RPCServer) FetchClients(args int, reply *[]*ClientStats) error {
	*reply = s.Server.Stats().Clients()
	debug("Fetched, clients:", len(*reply))
	return nil
}
