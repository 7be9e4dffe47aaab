package model

import (
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
)

type Session struct {
	Account    string
	AccIdx     int
	Proxy      string
	Address    string
	PublicKey  common.Address
	PrivateKey *ecdsa.PrivateKey

	// Token is the id_token returned by sign-in; empty means unauthenticated.
	Token string
	// CaptchaSolvedForChat is set once a chat message carrying a captcha token is accepted.
	CaptchaSolvedForChat bool
	IsNewAccount         bool

	WalletBalance WalletBalance

	SignInStatus   string
	TaskStatus     string
	ChatStatus     string
	ClaimStatus    string
	TasksCompleted int
	ClaimsDone     int
	ClaimsFailed   int
}

func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}
