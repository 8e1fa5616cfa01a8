package loclntp

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxTrackedClients = 256

type StatsSnapshot struct {
	Address        string
	Started        time.Time
	Requests       uint64
	Replies        uint64
	Malformed      uint64
	ClockFailures  uint64
	SendFailures   uint64
	TrackedClients int
}

type ClientStats struct {
	Address  string
	Requests uint64
	LastSeen time.Time
}

type Stats struct {
	started time.Time

	requests      atomic.Uint64
	replies       atomic.Uint64
	malformed     atomic.Uint64
	clockFailures atomic.Uint64
	sendFailures  atomic.Uint64

	lock    sync.Mutex
	clients map[string]*ClientStats

	registry *prometheus.Registry
}

func NewStats() *Stats {
	s := &Stats{
		started:  time.Now(),
		clients:  map[string]*ClientStats{},
		registry: prometheus.NewRegistry(),
	}

	counter := func(name, help string, value *atomic.Uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "ntp",
			Subsystem: "server",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(value.Load()) })
	}

	s.registry.MustRegister(
		counter("requests_total", "The total number of datagrams received", &s.requests),
		counter("replies_total", "The total number of responses sent", &s.replies),
		counter("malformed_total", "Datagrams too short to answer", &s.malformed),
		counter("clock_failures_total", "Requests dropped because the clock could not be read", &s.clockFailures),
		counter("send_failures_total", "Responses that could not be sent", &s.sendFailures),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "ntp",
			Subsystem: "server",
			Name:      "tracked_clients",
			Help:      "Clients currently held in the client table",
		}, func() float64 {
			s.lock.Lock()
			defer s.lock.Unlock()
			return float64(len(s.clients))
		}),
	)

	return s
}

func (s *Stats) Registry() *prometheus.Registry {
	return s.registry
}

// observe records a reply sent to addr. When the table is full the client
// seen least recently is dropped.
func (s *Stats) observe(addr net.Addr, now time.Time) {
	key := addr.String()

	s.lock.Lock()
	defer s.lock.Unlock()

	client, ok := s.clients[key]
	if !ok {
		if len(s.clients) >= maxTrackedClients {
			s.evictOldest()
		}
		client = &ClientStats{Address: key}
		s.clients[key] = client
	}
	client.Requests++
	client.LastSeen = now
}

func (s *Stats) evictOldest() {
	var oldest *ClientStats
	for _, client := range s.clients {
		if oldest == nil || client.LastSeen.Before(oldest.LastSeen) {
			oldest = client
		}
	}
	if oldest != nil {
		delete(s.clients, oldest.Address)
	}
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.lock.Lock()
	tracked := len(s.clients)
	s.lock.Unlock()

	return StatsSnapshot{
		Started:        s.started,
		Requests:       s.requests.Load(),
		Replies:        s.replies.Load(),
		Malformed:      s.malformed.Load(),
		ClockFailures:  s.clockFailures.Load(),
		SendFailures:   s.sendFailures.Load(),
		TrackedClients: tracked,
	}
}

// Clients returns copies of the tracked clients, most recent first.
func (s *Stats) Clients() []*ClientStats {
	s.lock.Lock()
	clients := make([]*ClientStats, 0, len(s.clients))
	for _, client := range s.clients {
		copied := *client
		clients = append(clients, &copied)
	}
	s.lock.Unlock()

	sort.Slice(clients, func(i, j int) bool {
		return clients[i].LastSeen.After(clients[j].LastSeen)
	})
	return clients
}

// ServeMetrics exposes the registry on /metrics until ctx is done.
func (s *Stats) ServeMetrics(ctx context.Context, address string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		server.Close()
	}()

	log.Printf("Listen metric: %s", address)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
