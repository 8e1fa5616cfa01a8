package loclntp

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/beevik/ntp"
)

type QueryResult struct {
	Offset      float64 // seconds
	Err         float64 // seconds
	Stratum     uint8
	ReferenceID uint32
}

var (
	ErrNoSync     = errors.New("server is not synchronized")
	ErrNoResponse = errors.New("server did not respond")
)

const queryTimeout = time.Second

// noResponseError is ErrNoResponse carrying the error of the last sample.
type noResponseError struct {
	err error
}

func (e *noResponseError) Error() string {
	return ErrNoResponse.Error() + ": " + e.err.Error()
}

func (e *noResponseError) Is(target error) bool {
	return target == ErrNoResponse
}

func (e *noResponseError) Unwrap() error {
	return e.err
}

// queryOptions splits an optional port off address, which beevik/ntp expects
// in QueryOptions rather than in the host.
func queryOptions(address string) (string, ntp.QueryOptions, error) {
	options := ntp.QueryOptions{Timeout: queryTimeout}

	host, port, err := net.SplitHostPort(address)
	if err != nil {
		// Bare host, default NTP port
		return address, options, nil
	}
	options.Port, err = strconv.Atoi(port)
	if err != nil || options.Port < 1 || options.Port > 65535 {
		return "", options, fmt.Errorf("invalid port in %q", address)
	}
	return host, options, nil
}

// Query samples address the given number of times and reports the offset of
// the sample with the lowest round trip delay. progress, when not nil,
// receives one value per sample.
func Query(address string, samples int, progress chan<- struct{}) (*QueryResult, error) {
	host, options, err := queryOptions(address)
	if err != nil {
		return nil, err
	}

	var best *ntp.Response
	var lastErr error

	for i := 0; i < samples; i++ {
		started := time.Now()
		response, err := ntp.QueryWithOptions(host, options)
		if progress != nil {
			progress <- struct{}{}
		}

		if err != nil {
			debug("Query", address, "sample", i, "failed:", err)
			lastErr = err
		} else {
			// Exit early if the server is not synced
			if response.Leap == ntp.LeapNotInSync {
				return nil, ErrNoSync
			}
			if best == nil || response.RTT < best.RTT {
				best = response
			}
		}

		if i < samples-1 {
			time.Sleep(queryTimeout - time.Since(started))
		}
	}

	if best == nil {
		if lastErr != nil {
			return nil, &noResponseError{err: lastErr}
		}
		return nil, ErrNoResponse
	}

	// lambda is error in a given sample's offset
	lambda := best.RootDelay/2 + best.RootDispersion + best.RTT

	return &QueryResult{
		Offset:      best.ClockOffset.Seconds(),
		Err:         lambda.Seconds(),
		Stratum:     best.Stratum,
		ReferenceID: best.ReferenceID,
	}, nil
}
