package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/nadbot/dexbot-backend/internal/models"
)

// ErrTokenNotListed marks a quote rejection from the lens: the token has no
// tradable route on the venue. Distinct from transport failures.
var ErrTokenNotListed = errors.New("token not listed on venue")

const swapDeadlineWindow = 20 * time.Minute

// Client wraps an Ethereum-compatible RPC endpoint with the handful of
// contract calls the trading core needs. Signing keys are passed per call
// and never retained.
type Client struct {
	rpc      *ethclient.Client
	chainID  *big.Int
	lensAddr common.Address
	gasLimit uint64
	gasMul   float64

	lensABI   abi.ABI
	routerABI abi.ABI
	erc20ABI  abi.ABI
}

func NewClient(rpcURL string, chainID int64, lensAddr string, gasLimit uint64, gasMultiplier float64) (*Client, error) {
	rpc, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial RPC: %w", err)
	}

	lABI, err := abi.JSON(mustLensABI())
	if err != nil {
		return nil, fmt.Errorf("parse lens ABI: %w", err)
	}
	rABI, err := abi.JSON(mustRouterABI())
	if err != nil {
		return nil, fmt.Errorf("parse router ABI: %w", err)
	}
	eABI, err := abi.JSON(mustERC20ABI())
	if err != nil {
		return nil, fmt.Errorf("parse ERC20 ABI: %w", err)
	}

	return &Client{
		rpc:       rpc,
		chainID:   big.NewInt(chainID),
		lensAddr:  common.HexToAddress(lensAddr),
		gasLimit:  gasLimit,
		gasMul:    gasMultiplier,
		lensABI:   lABI,
		routerABI: rABI,
		erc20ABI:  eABI,
	}, nil
}

func (c *Client) Close() { c.rpc.Close() }

// GetQuote asks the lens which router serves the token and how much it
// would pay out. A lens revert or a zero router means the token is not
// listed; anything else is a transport failure the caller handles
// separately.
func (c *Client) GetQuote(ctx context.Context, token common.Address, amountIn *big.Int, direction models.Direction) (*models.Quote, error) {
	data, err := c.lensABI.Pack("getAmountOut", token, amountIn, direction == models.Buy)
	if err != nil {
		return nil, fmt.Errorf("pack getAmountOut: %w", err)
	}
	result, err := c.callContract(ctx, c.lensAddr, data)
	if err != nil {
		if isRevert(err) {
			return nil, ErrTokenNotListed
		}
		return nil, fmt.Errorf("getAmountOut call: %w", err)
	}

	out, err := c.lensABI.Unpack("getAmountOut", result)
	if err != nil {
		return nil, fmt.Errorf("unpack getAmountOut: %w", err)
	}
	router := out[0].(common.Address)
	amountOut := out[1].(*big.Int)
	if router == (common.Address{}) {
		return nil, ErrTokenNotListed
	}

	return &models.Quote{
		Token:     token.Hex(),
		Direction: direction,
		Router:    router.Hex(),
		AmountIn:  new(big.Int).Set(amountIn),
		AmountOut: amountOut,
	}, nil
}

func (c *Client) GetAllowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	data, err := c.erc20ABI.Pack("allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	result, err := c.callContract(ctx, token, data)
	if err != nil {
		return nil, fmt.Errorf("allowance call: %w", err)
	}
	return new(big.Int).SetBytes(result), nil
}

// Approve submits an ERC20 approval for exactly amount and returns the tx
// hash without waiting for inclusion.
func (c *Client) Approve(ctx context.Context, token, spender common.Address, amount *big.Int, signer *ecdsa.PrivateKey) (string, error) {
	data, err := c.erc20ABI.Pack("approve", spender, amount)
	if err != nil {
		return "", err
	}
	return c.signAndSend(ctx, token, big.NewInt(0), data, 0, nil, signer)
}

// SubmitSwap packs and broadcasts the buy or sell call on the given router.
// Buys carry the spend amount as native value; sells move tokens and need a
// prior allowance.
func (c *Client) SubmitSwap(ctx context.Context, order *models.TradeOrder, router common.Address, signer *ecdsa.PrivateKey) (string, error) {
	to := common.HexToAddress(order.Recipient)
	token := common.HexToAddress(order.Token)

	deadline := order.Deadline
	if deadline == nil {
		deadline = big.NewInt(time.Now().Add(swapDeadlineWindow).Unix())
	}

	var (
		data  []byte
		value *big.Int
		err   error
	)
	switch order.Direction {
	case models.Buy:
		data, err = c.routerABI.Pack("buy", order.AmountOutMin, token, to, deadline)
		value = order.AmountIn
	case models.Sell:
		data, err = c.routerABI.Pack("sell", order.AmountIn, order.AmountOutMin, token, to, deadline)
		value = big.NewInt(0)
	default:
		return "", fmt.Errorf("unknown direction %q", order.Direction)
	}
	if err != nil {
		return "", fmt.Errorf("pack %s: %w", order.Direction, err)
	}

	return c.signAndSend(ctx, router, value, data, order.GasLimit, order.Nonce, signer)
}

// GetReceipt returns nil, nil while the transaction is still pending.
func (c *Client) GetReceipt(ctx context.Context, txHash string) (*models.ConfirmationReceipt, error) {
	receipt, err := c.rpc.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	return &models.ConfirmationReceipt{
		TxHash:      txHash,
		Success:     receipt.Status == types.ReceiptStatusSuccessful,
		GasUsed:     receipt.GasUsed,
		BlockNumber: receipt.BlockNumber.Uint64(),
	}, nil
}

// GetBalance returns the native-coin balance in base units.
func (c *Client) GetBalance(ctx context.Context, addr common.Address) (*big.Int, error) {
	return c.rpc.BalanceAt(ctx, addr, nil)
}

// TokenInfo reads ERC20 metadata from the token contract. Decimals must be
// readable since amounts are scaled by it; name and symbol are optional and
// left empty when the token does not expose them.
func (c *Client) TokenInfo(ctx context.Context, token common.Address) (*models.TokenInfo, error) {
	info := &models.TokenInfo{Address: token.Hex()}

	out, err := c.callERC20(ctx, token, "decimals")
	if err != nil {
		return nil, fmt.Errorf("decimals call: %w", err)
	}
	info.Decimals = out[0].(uint8)

	if out, err := c.callERC20(ctx, token, "name"); err == nil {
		info.Name = out[0].(string)
	}
	if out, err := c.callERC20(ctx, token, "symbol"); err == nil {
		info.Symbol = out[0].(string)
	}
	return info, nil
}

func (c *Client) callERC20(ctx context.Context, token common.Address, method string) ([]interface{}, error) {
	data, err := c.erc20ABI.Pack(method)
	if err != nil {
		return nil, err
	}
	result, err := c.callContract(ctx, token, data)
	if err != nil {
		return nil, err
	}
	return c.erc20ABI.Unpack(method, result)
}

// TokenBalance returns an ERC20 balance in base units.
func (c *Client) TokenBalance(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	data, err := c.erc20ABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, err
	}
	result, err := c.callContract(ctx, token, data)
	if err != nil {
		return nil, fmt.Errorf("balanceOf call: %w", err)
	}
	return new(big.Int).SetBytes(result), nil
}

func (c *Client) gasPrice(ctx context.Context) (*big.Int, error) {
	price, err := c.rpc.SuggestGasPrice(ctx)
	if err != nil {
		return nil, err
	}
	mul := new(big.Float).SetFloat64(c.gasMul)
	adjusted := new(big.Float).Mul(new(big.Float).SetInt(price), mul)
	result, _ := adjusted.Int(nil)
	return result, nil
}

func (c *Client) signAndSend(ctx context.Context, to common.Address, value *big.Int, data []byte, gasLimit uint64, nonceOverride *uint64, signer *ecdsa.PrivateKey) (string, error) {
	from := crypto.PubkeyToAddress(signer.PublicKey)

	var nonce uint64
	if nonceOverride != nil {
		nonce = *nonceOverride
	} else {
		var err error
		nonce, err = c.rpc.PendingNonceAt(ctx, from)
		if err != nil {
			return "", fmt.Errorf("get nonce: %w", err)
		}
	}

	gasPrice, err := c.gasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("get gas price: %w", err)
	}
	if gasLimit == 0 {
		gasLimit = c.gasLimit
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.NewEIP155Signer(c.chainID), signer)
	if err != nil {
		return "", fmt.Errorf("sign tx: %w", err)
	}
	if err := c.rpc.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("send tx: %w", err)
	}
	return signed.Hash().Hex(), nil
}

// callContract performs a read-only eth_call and returns the raw result.
func (c *Client) callContract(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	msg := map[string]interface{}{
		"to":   to.Hex(),
		"data": fmt.Sprintf("0x%x", data),
	}
	var result string
	err := c.rpc.Client().CallContext(ctx, &result, "eth_call", msg, "latest")
	if err != nil {
		return nil, err
	}
	return common.FromHex(result), nil
}

func isRevert(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "execution reverted")
}
