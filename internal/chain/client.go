package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"eventscope/internal/event"
)

// Client sends JSON-RPC requests built by the event package to a node.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("rpc url is required")
	}
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// ChainID returns the chain ID.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// Call sends req and returns the result decoded into generic JSON values:
// map[string]any, []any, string, bool, float64 or nil.
func (c *Client) Call(ctx context.Context, req event.Request) (any, error) {
	var result any
	if err := c.rpcClient.CallContext(ctx, &result, req.Method, req.Params...); err != nil {
		return nil, fmt.Errorf("%s: %w", req.Method, err)
	}
	return result, nil
}
