package ledger

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/time/rate"

	"github.com/predictfund/engine/internal/domain/model"
	"github.com/predictfund/engine/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultCallTimeout = 10 * time.Second
	defaultRateLimit   = rate.Limit(20) // RPC calls per second
	defaultRateBurst   = 5
)

// marketABI covers only the view functions the engine reads.
var marketABI abi.ABI

func init() {
	var err error
	marketABI, err = abi.JSON(strings.NewReader(`[
		{
			"name": "getUserBets",
			"type": "function",
			"stateMutability": "view",
			"inputs": [{"name": "user", "type": "address"}],
			"outputs": [{"name": "", "type": "uint256[]"}]
		},
		{
			"name": "getBet",
			"type": "function",
			"stateMutability": "view",
			"inputs": [{"name": "betId", "type": "uint256"}],
			"outputs": [{
				"components": [
					{"name": "id", "type": "uint256"},
					{"name": "marketId", "type": "uint256"},
					{"name": "bettor", "type": "address"},
					{"name": "amount", "type": "uint256"},
					{"name": "predictedYes", "type": "bool"},
					{"name": "claimed", "type": "bool"},
					{"name": "reward", "type": "uint256"}
				],
				"type": "tuple"
			}]
		}
	]`))
	if err != nil {
		panic("market abi parse: " + err.Error())
	}
}

// betTuple mirrors the getBet return struct for ABI unpacking.
type betTuple struct {
	Id           *big.Int //nolint:revive,staticcheck // name must match the ABI component
	MarketId     *big.Int //nolint:revive,staticcheck // name must match the ABI component
	Bettor       common.Address
	Amount       *big.Int
	PredictedYes bool
	Claimed      bool
	Reward       *big.Int
}

// Client implements Reader against a JSON-RPC endpoint via go-ethereum.
type Client struct {
	eth      *ethclient.Client
	contract common.Address

	limiter     *rate.Limiter
	callTimeout time.Duration
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithCallTimeout bounds each individual RPC call.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// WithRateLimit caps outgoing RPC calls per second.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), defaultRateBurst)
		}
	}
}

// Dial connects to the RPC endpoint and targets the given contract.
func Dial(ctx context.Context, rpcURL, contractAddress string, opts ...Option) (*Client, error) {
	if !common.IsHexAddress(contractAddress) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidContract, contractAddress)
	}

	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDial, rpcURL, err)
	}

	c := &Client{
		eth:         eth,
		contract:    common.HexToAddress(contractAddress),
		limiter:     rate.NewLimiter(defaultRateLimit, defaultRateBurst),
		callTimeout: defaultCallTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// BlockNumber returns the current head height.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	const method = "blockNumber"
	ctx, cancel, err := c.prepare(ctx, method)
	if err != nil {
		return 0, err
	}
	defer cancel()

	head, err := c.eth.BlockNumber(ctx)
	if err != nil {
		metrics.RecordLedgerCallError(method)
		return 0, fmt.Errorf("%w: %s: %w", ErrCall, method, err)
	}
	return head, nil
}

// FilterLogs returns the contract's logs in [fromBlock, toBlock].
func (c *Client) FilterLogs(ctx context.Context, fromBlock, toBlock uint64) ([]Log, error) {
	const method = "getLogs"
	ctx, cancel, err := c.prepare(ctx, method)
	if err != nil {
		return nil, err
	}
	defer cancel()

	raw, err := c.eth.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{c.contract},
	})
	if err != nil {
		metrics.RecordLedgerCallError(method)
		return nil, fmt.Errorf("%w: %s: %w", ErrCall, method, err)
	}

	logs := make([]Log, len(raw))
	for i, l := range raw {
		logs[i] = Log{Topics: l.Topics, BlockNumber: l.BlockNumber}
	}
	return logs, nil
}

// UserBets returns the bet identifiers owned by address.
func (c *Client) UserBets(ctx context.Context, address string) ([]*big.Int, error) {
	const method = "getUserBets"
	out, err := c.call(ctx, method, common.HexToAddress(address))
	if err != nil {
		return nil, err
	}

	ids, ok := out[0].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: %s: unexpected return shape", ErrCall, method)
	}
	return ids, nil
}

// Bet returns one bet record by identifier.
func (c *Client) Bet(ctx context.Context, id *big.Int) (model.BetRecord, error) {
	const method = "getBet"
	out, err := c.call(ctx, method, id)
	if err != nil {
		return model.BetRecord{}, err
	}

	tuple := *abi.ConvertType(out[0], new(betTuple)).(*betTuple)
	return model.BetRecord{
		ID:           tuple.Id,
		MarketID:     tuple.MarketId,
		Bettor:       model.NormalizeAddress(tuple.Bettor.Hex()),
		Amount:       tuple.Amount,
		PredictedYes: tuple.PredictedYes,
		Claimed:      tuple.Claimed,
		Reward:       tuple.Reward,
	}, nil
}

// call packs a view-function invocation, executes it and unpacks the result.
func (c *Client) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := marketABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: pack %s: %w", ErrCall, method, err)
	}

	ctx, cancel, err := c.prepare(ctx, method)
	if err != nil {
		return nil, err
	}
	defer cancel()

	res, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &c.contract, Data: data}, nil)
	if err != nil {
		metrics.RecordLedgerCallError(method)
		return nil, fmt.Errorf("%w: %s: %w", ErrCall, method, err)
	}

	out, err := marketABI.Unpack(method, res)
	if err != nil || len(out) == 0 {
		metrics.RecordLedgerCallError(method)
		return nil, fmt.Errorf("%w: unpack %s: %w", ErrCall, method, err)
	}
	return out, nil
}

// prepare applies the rate limit, records the call metric and derives the
// per-call timeout context.
func (c *Client) prepare(ctx context.Context, method string) (context.Context, context.CancelFunc, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %w", ErrCall, method, err)
	}
	metrics.RecordLedgerCall(method)
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	return ctx, cancel, nil
}
