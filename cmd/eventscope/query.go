package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"eventscope/internal/chain"
	"eventscope/internal/codec"
	"eventscope/internal/config"
	"eventscope/internal/event"
	"eventscope/internal/model"
)

func addQueryFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "JSON-RPC URL")
	cmd.Flags().String("block", "latest", "block number or tag (latest, pending, earliest, safe, finalized)")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func newBalanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance <address>",
		Short: "Print the wei balance of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withQuery(cmd, func(ctx context.Context, client *chain.Client, block any) (any, error) {
				req, err := event.BalanceQuery(args[0], block)
				if err != nil {
					return nil, err
				}
				result, err := client.Call(ctx, req)
				if err != nil {
					return nil, err
				}
				wei, err := event.DecodeBalance(result)
				if err != nil {
					return nil, err
				}
				return map[string]string{
					"address": args[0],
					"block":   req.Params[1].(string),
					"wei":     wei.String(),
				}, nil
			})
		},
	}
	addQueryFlags(cmd)
	return cmd
}

func newBlockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block",
		Short: "Print a block header",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withQuery(cmd, func(ctx context.Context, client *chain.Client, block any) (any, error) {
				req, err := event.BlockQuery(block)
				if err != nil {
					return nil, err
				}
				result, err := client.Call(ctx, req)
				if err != nil {
					return nil, err
				}
				b, err := event.DecodeBlock(result)
				if err != nil {
					return nil, err
				}
				if b == nil {
					return nil, fmt.Errorf("block %s not found", req.Params[0])
				}
				return blockJSON(b), nil
			})
		},
	}
	addQueryFlags(cmd)
	return cmd
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <address>",
		Short: "Print ERC20 decimals, total supply and optionally a holder balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			holder, _ := cmd.Flags().GetString("holder")
			return withQuery(cmd, func(ctx context.Context, client *chain.Client, block any) (any, error) {
				return readToken(ctx, client, args[0], holder, block)
			})
		},
	}
	addQueryFlags(cmd)
	cmd.Flags().String("holder", "", "also read balanceOf(holder)")
	return cmd
}

// withQuery loads the query config, dials the node, runs fn and prints its
// result as indented JSON.
func withQuery(cmd *cobra.Command, fn func(ctx context.Context, client *chain.Client, block any) (any, error)) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuery(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}
	block, err := event.ParseValue(codec.Quantity(), cfg.Block)
	if err != nil {
		return fmt.Errorf("block: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := chain.NewClient(ctx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer client.Close()

	logger.Debug("query", zap.String("command", cmd.Name()), zap.String("block", cfg.Block))

	out, err := fn(ctx, client, block)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

type caller interface {
	Call(ctx context.Context, req event.Request) (any, error)
}

func callView(ctx context.Context, client caller, to, sig string, args []any, block any, out codec.Type) (*big.Int, error) {
	req, err := event.CallQuery(to, sig, args, block)
	if err != nil {
		return nil, err
	}
	result, err := client.Call(ctx, req)
	if err != nil {
		return nil, err
	}
	values, _, err := event.DecodeCall([]codec.Type{out}, result)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", sig, err)
	}
	return values[0].(*big.Int), nil
}

func readToken(ctx context.Context, client caller, address, holder string, block any) (model.TokenInfo, error) {
	info := model.TokenInfo{Address: address, Block: fmt.Sprint(block)}

	decimals, err := callView(ctx, client, address, event.DecimalsSig, nil, block, codec.Uint(8))
	if err != nil {
		return info, err
	}
	info.Decimals = uint8(decimals.Uint64())

	supply, err := callView(ctx, client, address, event.TotalSupplySig, nil, block, codec.Uint(256))
	if err != nil {
		return info, err
	}
	info.TotalSupply = supply.String()

	if holder != "" {
		balance, err := callView(ctx, client, address, event.BalanceOfSig, []any{holder}, block, codec.Uint(256))
		if err != nil {
			return info, err
		}
		info.Holder = holder
		info.Balance = balance.String()
	}
	return info, nil
}

func blockJSON(b *event.Block) map[string]any {
	str := func(n *big.Int) any {
		if n == nil {
			return nil
		}
		return n.String()
	}
	return map[string]any{
		"number":            str(b.Number),
		"hash":              b.Hash,
		"parent_hash":       b.ParentHash,
		"timestamp":         str(b.Timestamp),
		"miner":             b.Miner,
		"gas_limit":         str(b.GasLimit),
		"gas_used":          str(b.GasUsed),
		"base_fee":          str(b.BaseFee),
		"transaction_count": b.TransactionCount,
		"status":            b.Status.String(),
	}
}
