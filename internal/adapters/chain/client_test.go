package chain

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ohmynofan/xterio-ai-bot/internal/config"
	"github.com/ohmynofan/xterio-ai-bot/internal/domain/model"
)

const (
	testKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	testPhrase  = "test test test test test test test test test test test junk"
)

type fakeBackend struct {
	mu            sync.Mutex
	pending       uint64
	latest        uint64
	estimate      uint64
	baseFee       *big.Int
	balance       *big.Int
	status        uint64
	receiptMisses int
	sent          []*types.Transaction
	estimated     []ethereum.CallMsg
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return f.pending, nil
}

func (f *fakeBackend) NonceAt(context.Context, common.Address, *big.Int) (uint64, error) {
	return f.latest, nil
}

func (f *fakeBackend) EstimateGas(_ context.Context, msg ethereum.CallMsg) (uint64, error) {
	f.estimated = append(f.estimated, msg)
	return f.estimate, nil
}

func (f *fakeBackend) FeeHistory(context.Context, uint64, *big.Int, []float64) (*ethereum.FeeHistory, error) {
	return &ethereum.FeeHistory{BaseFee: []*big.Int{f.baseFee}}, nil
}

func (f *fakeBackend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeBackend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.receiptMisses > 0 {
		f.receiptMisses--
		return nil, ethereum.NotFound
	}
	return &types.Receipt{Status: f.status, TxHash: hash}, nil
}

func (f *fakeBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return f.balance, nil
}

func newTestClient(t *testing.T, backend *fakeBackend, network config.Network) *EthersClient {
	t.Helper()
	session := &model.Session{Account: testKey}
	ec := NewWithBackend(backend, session, network)
	ec.ReceiptPollInterval = time.Millisecond
	if err := ec.ConnectWallet(); err != nil {
		t.Fatalf("ConnectWallet: %v", err)
	}
	return ec
}

func TestNewSigner(t *testing.T) {
	for _, secret := range []string{testKey, testKey[2:], testPhrase, "  " + testPhrase + "\n"} {
		s, err := NewSigner(secret)
		if err != nil {
			t.Fatalf("NewSigner(%q): %v", secret, err)
		}
		if s.Address() != testAddress {
			t.Fatalf("address = %s, want %s", s.Address(), testAddress)
		}
	}

	for _, secret := range []string{"", "nothex", "zz" + testKey[4:], "not a valid mnemonic phrase"} {
		_, err := NewSigner(secret)
		if !errors.Is(err, model.ErrInvalidSecret) || model.KindOf(err) != model.InvalidSecret {
			t.Fatalf("NewSigner(%q) err = %v, want ErrInvalidSecret", secret, err)
		}
	}
}

func TestSignMessageRecoversAddress(t *testing.T) {
	s, err := NewSigner(testKey)
	if err != nil {
		t.Fatal(err)
	}
	sigHex, err := s.SignMessage("Welcome to Xterio")
	if err != nil {
		t.Fatal(err)
	}
	sig, err := hexutil.Decode(sigHex)
	if err != nil || len(sig) != 65 {
		t.Fatalf("bad signature %s: %v", sigHex, err)
	}
	if v := sig[64]; v != 27 && v != 28 {
		t.Fatalf("v = %d, want 27 or 28", v)
	}
	sig[64] -= 27
	pub, err := crypto.SigToPub(accounts.TextHash([]byte("Welcome to Xterio")), sig)
	if err != nil {
		t.Fatal(err)
	}
	if crypto.PubkeyToAddress(*pub).Hex() != testAddress {
		t.Fatal("signature does not recover signer address")
	}
}

func TestGasWithMargin(t *testing.T) {
	cases := map[uint64]uint64{0: 0, 100: 115, 21000: 24150, 33333: 38332, 7: 8}
	for in, want := range cases {
		if got := GasWithMargin(in); got != want {
			t.Fatalf("GasWithMargin(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestEncodeCall(t *testing.T) {
	data, err := EncodeCall("0xdc7d41f6", big.NewInt(11), big.NewInt(1))
	if err != nil {
		t.Fatal(err)
	}
	want := "0xdc7d41f6" +
		"000000000000000000000000000000000000000000000000000000000000000b" +
		"0000000000000000000000000000000000000000000000000000000000000001"
	if hexutil.Encode(data) != want {
		t.Fatalf("EncodeCall = %s", hexutil.Encode(data))
	}
	if _, err := EncodeCall("0x31bf7f", big.NewInt(1)); err == nil {
		t.Fatal("expected error for short selector")
	}
	if _, err := EncodeCall("0x31bf7fe8", big.NewInt(-1)); err == nil {
		t.Fatal("expected error for negative param")
	}
}

func TestSendCallBuildsDynamicFeeTx(t *testing.T) {
	backend := &fakeBackend{pending: 7, latest: 9, estimate: 100000, baseFee: big.NewInt(1000), status: types.ReceiptStatusSuccessful, receiptMisses: 2}
	ec := newTestClient(t, backend, config.XterioChain)
	to := common.HexToAddress("0x7bb85350e3a883A1708648AB7e37cEf4651cFd48")

	hash, err := ec.SendCall(context.Background(), to, []byte{0x31, 0xbf, 0x7f, 0xe8}, nil)
	if err != nil {
		t.Fatalf("SendCall: %v", err)
	}
	if len(backend.sent) != 1 {
		t.Fatalf("sent %d transactions", len(backend.sent))
	}
	tx := backend.sent[0]
	if tx.Hash() != hash {
		t.Fatal("returned hash differs from sent tx")
	}
	if tx.Type() != types.DynamicFeeTxType || tx.ChainId().Int64() != 112358 {
		t.Fatalf("type %d chain %s", tx.Type(), tx.ChainId())
	}
	if tx.Nonce() != 9 {
		t.Fatalf("nonce = %d, want max(pending, latest) = 9", tx.Nonce())
	}
	if tx.Gas() != 115000 {
		t.Fatalf("gas = %d, want 115000", tx.Gas())
	}
	tip := big.NewInt(2_000_000)
	if tx.GasTipCap().Cmp(tip) != 0 {
		t.Fatalf("tip = %s, want %s", tx.GasTipCap(), tip)
	}
	if tx.GasFeeCap().Cmp(new(big.Int).Add(tip, big.NewInt(1000))) != 0 {
		t.Fatalf("fee cap = %s", tx.GasFeeCap())
	}
	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil || from.Hex() != testAddress {
		t.Fatalf("sender = %s, %v", from.Hex(), err)
	}
	if backend.estimated[0].From.Hex() != testAddress || *backend.estimated[0].To != to {
		t.Fatal("gas estimate used wrong call message")
	}
}

func TestSendCallPendingNonceWins(t *testing.T) {
	backend := &fakeBackend{pending: 12, latest: 3, estimate: 21000, baseFee: big.NewInt(1), status: types.ReceiptStatusSuccessful}
	ec := newTestClient(t, backend, config.BNBSmartChain)
	if _, err := ec.SendCall(context.Background(), common.Address{1}, nil, big.NewInt(5)); err != nil {
		t.Fatal(err)
	}
	tx := backend.sent[0]
	if tx.Nonce() != 12 || tx.Value().Int64() != 5 || tx.GasTipCap().Cmp(big.NewInt(1_000_000_000)) != 0 {
		t.Fatalf("nonce %d value %s tip %s", tx.Nonce(), tx.Value(), tx.GasTipCap())
	}
}

func TestSendCallRevertedIsChainError(t *testing.T) {
	backend := &fakeBackend{estimate: 50000, baseFee: big.NewInt(10), status: types.ReceiptStatusFailed}
	ec := newTestClient(t, backend, config.XterioChain)

	hash, err := ec.SendCall(context.Background(), common.Address{2}, nil, nil)
	var chainErr *model.ChainError
	if !errors.As(err, &chainErr) || model.KindOf(err) != model.ChainSubmissionFailure {
		t.Fatalf("err = %v, want ChainError", err)
	}
	if chainErr.TxHash != hash.Hex() || chainErr.Status != 0 {
		t.Fatalf("chain error = %+v", chainErr)
	}
}

func TestWaitReceiptHonoursContext(t *testing.T) {
	backend := &fakeBackend{receiptMisses: 1 << 30}
	ec := newTestClient(t, backend, config.XterioChain)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := ec.WaitReceipt(ctx, common.Hash{1}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestBalanceRecordsSession(t *testing.T) {
	backend := &fakeBackend{balance: big.NewInt(1_500_000_000_000_000_000)}
	ec := newTestClient(t, backend, config.BNBSmartChain)

	bal, err := ec.Balance(context.Background())
	if err != nil || bal.Cmp(backend.balance) != 0 {
		t.Fatalf("Balance = %s, %v", bal, err)
	}
	balances := ec.session.WalletBalance.Balances
	if len(balances) != 1 || balances[0].Network != config.BNBSmartChain.Name || balances[0].BalanceStr != "1.5" {
		t.Fatalf("session balances = %+v", balances)
	}
}

func TestPackBridgeETHTo(t *testing.T) {
	to := common.HexToAddress(testAddress)
	data, err := PackBridgeETHTo(to)
	if err != nil {
		t.Fatal(err)
	}
	method, ok := bridgeABI.Methods["bridgeETHTo"]
	if !ok || hexutil.Encode(data[:4]) != hexutil.Encode(method.ID) {
		t.Fatal("selector mismatch")
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		t.Fatal(err)
	}
	if args[0].(common.Address) != to || args[1].(uint32) != 200000 || string(args[2].([]byte)) != "superbridge" {
		t.Fatalf("args = %v", args)
	}
}
