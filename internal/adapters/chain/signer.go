package chain

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ohmynofan/xterio-ai-bot/internal/domain/model"
	"github.com/ohmynofan/xterio-ai-bot/pkg/utils"
)

// Signer holds one wallet identity derived from a seed phrase or private key.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

func NewSigner(secret string) (*Signer, error) {
	address, key, err := deriveAddress(secret)
	if err != nil {
		return nil, err
	}
	return &Signer{key: key, address: address}, nil
}

func deriveAddress(secret string) (common.Address, *ecdsa.PrivateKey, error) {
	data := strings.TrimSpace(secret)
	switch utils.DetermineType(data) {
	case utils.SecretPhrase:
		addr, pk, err := utils.AddressFromMnemonic(data, "")
		if err != nil {
			return common.Address{}, nil, fmt.Errorf("%w: %v", model.ErrInvalidSecret, err)
		}
		return addr, pk, nil
	case utils.PrivateKey:
		pk, err := utils.PrivateKeyFromHex(data)
		if err != nil {
			return common.Address{}, nil, fmt.Errorf("%w: %v", model.ErrInvalidSecret, err)
		}
		return crypto.PubkeyToAddress(pk.PublicKey), pk, nil
	default:
		return common.Address{}, nil, model.ErrInvalidSecret
	}
}

func (s *Signer) Address() string {
	return s.address.Hex()
}

func (s *Signer) CommonAddress() common.Address {
	return s.address
}

func (s *Signer) PrivateKey() *ecdsa.PrivateKey {
	return s.key
}

// SignMessage produces an EIP-191 personal signature with V in {27, 28}.
func (s *Signer) SignMessage(message string) (string, error) {
	hash := accounts.TextHash([]byte(message))
	signature, err := crypto.Sign(hash, s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}
	if signature[crypto.RecoveryIDOffset] < 27 {
		signature[crypto.RecoveryIDOffset] += 27
	}
	return hexutil.Encode(signature), nil
}

func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}
	return signed, nil
}
