package utils

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	bip32 "github.com/tyler-smith/go-bip32"
	bip39 "github.com/tyler-smith/go-bip39"
)

const (
	SecretPhrase = "Secret Phrase"
	PrivateKey   = "Private Key"
	Unknown      = "Unknown"
)

var pkRegex = regexp.MustCompile(`^[a-fA-F0-9]{64}$`)

func ShortenAddress(s string) string {
	if len(s) <= 12 {
		return s
	}
	return s[:6] + "..." + s[len(s)-4:]
}

// DetermineType treats any multi-word secret as a seed phrase.
func DetermineType(input string) string {
	if len(strings.Fields(input)) > 1 {
		return SecretPhrase
	}
	if IsPrivateKey(input) {
		return PrivateKey
	}
	return Unknown
}

func IsPrivateKey(input string) bool {
	data := strings.TrimPrefix(strings.TrimSpace(input), "0x")
	return pkRegex.MatchString(data)
}

func PrivateKeyFromHex(input string) (*ecdsa.PrivateKey, error) {
	data := strings.TrimPrefix(strings.TrimSpace(input), "0x")
	return crypto.HexToECDSA(data)
}

func AddressFromMnemonic(mnemonic, passphrase string) (common.Address, *ecdsa.PrivateKey, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if !bip39.IsMnemonicValid(mnemonic) {
		return common.Address{}, nil, errors.New("invalid BIP-39 mnemonic")
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return common.Address{}, nil, err
	}
	h := func(i uint32) uint32 { return i + bip32.FirstHardenedChild }
	key := master
	for _, idx := range []uint32{h(44), h(60), h(0), 0, 0} {
		key, err = key.NewChildKey(idx)
		if err != nil {
			return common.Address{}, nil, err
		}
	}
	pk, err := crypto.ToECDSA(key.Key)
	if err != nil {
		return common.Address{}, nil, err
	}
	return crypto.PubkeyToAddress(pk.PublicKey), pk, nil
}

// ParseUnits converts a decimal string into its integer representation scaled by
// 10^decimals. Extra fractional digits are truncated.
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, errors.New("empty amount")
	}
	whole, frac, _ := strings.Cut(amount, ".")
	if len(frac) > decimals {
		frac = frac[:decimals]
	}
	frac += strings.Repeat("0", decimals-len(frac))
	if whole == "" {
		whole = "0"
	}
	value, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	return value, nil
}

func FormatUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	value := new(big.Float).SetInt(amount)
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	result := new(big.Float).Quo(value, divisor)

	return result.Text('f', -1)
}

func Gwei(v float64) *big.Int {
	wei, _ := ParseUnits(fmt.Sprintf("%.9f", v), 9)
	return wei
}
