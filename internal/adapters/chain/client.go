package chain

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	adhttp "github.com/ohmynofan/xterio-ai-bot/internal/adapters/http"
	"github.com/ohmynofan/xterio-ai-bot/internal/config"
	"github.com/ohmynofan/xterio-ai-bot/internal/domain/model"
	"github.com/ohmynofan/xterio-ai-bot/internal/platform/logger"
	"github.com/ohmynofan/xterio-ai-bot/pkg/utils"
)

const DefaultReceiptPollInterval = 2 * time.Second

// Backend is the subset of ethclient.Client the wallet needs.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	FeeHistory(ctx context.Context, blockCount uint64, lastBlock *big.Int, rewardPercentiles []float64) (*ethereum.FeeHistory, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

type EthersClient struct {
	backend Backend
	closer  func()
	network config.Network
	session *model.Session
	signer  *Signer
	log     *logger.ClassLogger

	ReceiptPollInterval time.Duration
}

// New dials the network RPC, routed through the session proxy when one is set.
func New(ctx context.Context, session *model.Session, network config.Network) (*EthersClient, error) {
	var opts []rpc.ClientOption
	if session.Proxy != "" {
		proxyURL, err := adhttp.ParseProxy(session.Proxy)
		if err != nil {
			return nil, model.NewOpError(model.TransportFailure, "Dial", err)
		}
		opts = append(opts, rpc.WithHTTPClient(&http.Client{
			Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
			Timeout:   60 * time.Second,
		}))
	}
	rpcClient, err := rpc.DialOptions(ctx, network.RPCURL, opts...)
	if err != nil {
		return nil, model.NewOpError(model.TransportFailure, "Dial", fmt.Errorf("failed to connect RPC (%s): %w", network.Name, err))
	}
	client := ethclient.NewClient(rpcClient)
	ec := NewWithBackend(client, session, network)
	ec.closer = client.Close
	ec.log.Log(fmt.Sprintf("Connected to %s RPC", network.Name))
	return ec, nil
}

func NewWithBackend(backend Backend, session *model.Session, network config.Network) *EthersClient {
	ec := &EthersClient{
		backend:             backend,
		network:             network,
		session:             session,
		ReceiptPollInterval: DefaultReceiptPollInterval,
	}
	ec.log = logger.NewLogger(ec, session)
	return ec
}

func (e *EthersClient) Close() {
	if e.closer != nil {
		e.closer()
	}
}

func (e *EthersClient) Network() config.Network {
	return e.network
}

// ConnectWallet derives the session identity from its configured secret.
func (e *EthersClient) ConnectWallet() error {
	e.log.Log(fmt.Sprintf("Connecting to Account : %d", e.session.AccIdx+1))
	signer, err := NewSigner(e.session.Account)
	if err != nil {
		e.session.Address = ""
		return model.NewOpError(model.InvalidSecret, "ConnectWallet", err)
	}
	e.UseSigner(signer)
	e.log.Log(fmt.Sprintf("Wallet connected %s", e.session.Address))
	return nil
}

func (e *EthersClient) UseSigner(signer *Signer) {
	e.signer = signer
	e.session.Address = signer.Address()
	e.session.PublicKey = signer.CommonAddress()
	e.session.PrivateKey = signer.PrivateKey()
}

func (e *EthersClient) Signer() *Signer {
	return e.signer
}

func (e *EthersClient) Address() string {
	return e.session.Address
}

// Balance reads the native balance at the latest block and records it on the session.
func (e *EthersClient) Balance(ctx context.Context) (*big.Int, error) {
	if e.signer == nil {
		return nil, errors.New("wallet not connected")
	}
	balance, err := e.backend.BalanceAt(ctx, e.signer.CommonAddress(), nil)
	if err != nil {
		return nil, model.NewOpError(model.TransportFailure, "Balance", fmt.Errorf("failed to fetch %s balance: %w", e.network.Name, err))
	}
	formatted := utils.FormatUnits(balance, e.network.Decimals)
	e.session.WalletBalance.Set(model.TokenBalance{
		Network:    e.network.Name,
		Symbol:     e.network.Symbol,
		Balance:    *new(big.Int).Set(balance),
		BalanceStr: formatted,
	})
	e.log.JustLog(fmt.Sprintf("%s balance: %s %s", e.network.Name, formatted, e.network.Symbol))
	return balance, nil
}

// ResolveNonce returns max(pending, latest) for the wallet.
func (e *EthersClient) ResolveNonce(ctx context.Context) (uint64, error) {
	addr := e.signer.CommonAddress()
	pending, err := e.backend.PendingNonceAt(ctx, addr)
	if err != nil {
		return 0, fmt.Errorf("pending nonce: %w", err)
	}
	latest, err := e.backend.NonceAt(ctx, addr, nil)
	if err != nil {
		return 0, fmt.Errorf("latest nonce: %w", err)
	}
	return max(pending, latest), nil
}

// GasWithMargin adds 15% to an estimate, rounding down.
func GasWithMargin(estimate uint64) uint64 {
	return estimate * 115 / 100
}

// EncodeCall concatenates a 4-byte selector with 32-byte big-endian words.
func EncodeCall(selector string, params ...*big.Int) ([]byte, error) {
	sel, err := hex.DecodeString(strings.TrimPrefix(selector, "0x"))
	if err != nil || len(sel) != 4 {
		return nil, fmt.Errorf("invalid selector %q", selector)
	}
	data := make([]byte, 0, 4+32*len(params))
	data = append(data, sel...)
	for i, p := range params {
		if p == nil || p.Sign() < 0 || p.BitLen() > 256 {
			return nil, fmt.Errorf("param %d is not a uint256", i)
		}
		data = append(data, common.LeftPadBytes(p.Bytes(), 32)...)
	}
	return data, nil
}

// SendCall builds, signs and submits a type-2 transaction, then waits for its
// receipt. A mined transaction with a failed status returns its hash together
// with a ChainError.
func (e *EthersClient) SendCall(ctx context.Context, to common.Address, data []byte, value *big.Int) (common.Hash, error) {
	op := "SendCall"
	if e.signer == nil {
		return common.Hash{}, model.NewOpError(model.ChainSubmissionFailure, op, errors.New("wallet not connected"))
	}
	if value == nil {
		value = new(big.Int)
	}
	from := e.signer.CommonAddress()

	nonce, err := e.ResolveNonce(ctx)
	if err != nil {
		return common.Hash{}, model.NewOpError(model.ChainSubmissionFailure, op, err)
	}

	estimate, err := e.backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Value: value, Data: data})
	if err != nil {
		return common.Hash{}, model.NewOpError(model.ChainSubmissionFailure, op, fmt.Errorf("estimate gas: %w", err))
	}

	history, err := e.backend.FeeHistory(ctx, 1, nil, nil)
	if err != nil {
		return common.Hash{}, model.NewOpError(model.ChainSubmissionFailure, op, fmt.Errorf("fee history: %w", err))
	}
	if history == nil || len(history.BaseFee) == 0 || history.BaseFee[0] == nil {
		return common.Hash{}, model.NewOpError(model.ChainSubmissionFailure, op, errors.New("fee history has no base fee"))
	}
	tip := utils.Gwei(e.network.PriorityFeeGwei)
	feeCap := new(big.Int).Add(history.BaseFee[0], tip)

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(e.network.ChainID),
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       GasWithMargin(estimate),
		To:        &to,
		Value:     value,
		Data:      data,
	})
	signed, err := e.signer.SignTx(tx, big.NewInt(e.network.ChainID))
	if err != nil {
		return common.Hash{}, model.NewOpError(model.ChainSubmissionFailure, op, err)
	}

	if err := e.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, model.NewOpError(model.ChainSubmissionFailure, op, fmt.Errorf("send transaction: %w", err))
	}
	hash := signed.Hash()
	e.log.Log(fmt.Sprintf("Transaction sent, waiting for receipt: %s", e.network.TxURL(hash.Hex())))

	receipt, err := e.WaitReceipt(ctx, hash)
	if err != nil {
		return hash, model.NewOpError(model.ChainSubmissionFailure, op, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return hash, model.NewOpError(model.ChainSubmissionFailure, op, &model.ChainError{TxHash: hash.Hex(), Status: receipt.Status})
	}
	return hash, nil
}

// WaitReceipt polls until the receipt is available; only ctx bounds the wait.
func (e *EthersClient) WaitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	interval := e.ReceiptPollInterval
	if interval <= 0 {
		interval = DefaultReceiptPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		receipt, err := e.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			e.log.JustLog(fmt.Sprintf("Receipt lookup for %s failed: %v", hash.Hex(), err))
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for receipt %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}
