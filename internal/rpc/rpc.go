package rpc

import (
	"net/rpc"

	"github.com/AndrewLester/loclntp/pkg/loclntp"
)

// Client talks to the control socket of a running server.
type Client struct {
	client *rpc.Client
}

func Dial(socket string) (*Client, error) {
	client, err := rpc.Dial("unix", socket)
	if err != nil {
		return nil, err
	}
	return &Client{client: client}, nil
}

// Fetch retrieves the counters and the client table in parallel.
func (c *Client) Fetch() (loclntp.StatsSnapshot, []*loclntp.ClientStats, error) {
	var stats loclntp.StatsSnapshot
	statsCall := c.client.Go("RPCServer.FetchStats", 0, &stats, nil)
	var clients []*loclntp.ClientStats
	clientsCall := c.client.Go("RPCServer.FetchClients", 0, &clients, nil)

	if err := (<-statsCall.Done).Error; err != nil {
		return stats, nil, err
	}
	if err := (<-clientsCall.Done).Error; err != nil {
		return stats, nil, err
	}
	return stats, clients, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}
