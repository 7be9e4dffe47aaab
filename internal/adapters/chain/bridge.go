package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	BridgeMinGasLimit uint32 = 200000
	BridgeExtraData          = "superbridge"
)

const standardBridgeABI = `[{"inputs":[{"internalType":"address","name":"_to","type":"address"},{"internalType":"uint32","name":"_minGasLimit","type":"uint32"},{"internalType":"bytes","name":"_extraData","type":"bytes"}],"name":"bridgeETHTo","outputs":[],"stateMutability":"payable","type":"function"}]`

var bridgeABI = mustParseABI(standardBridgeABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// PackBridgeETHTo encodes bridgeETHTo(_to, 200000, "superbridge").
func PackBridgeETHTo(to common.Address) ([]byte, error) {
	data, err := bridgeABI.Pack("bridgeETHTo", to, BridgeMinGasLimit, []byte(BridgeExtraData))
	if err != nil {
		return nil, fmt.Errorf("failed to pack bridgeETHTo: %w", err)
	}
	return data, nil
}
