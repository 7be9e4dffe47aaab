package model

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindUnknown            Kind = "Unknown"
	TransportFailure       Kind = "TransportFailure"
	ApplicationError       Kind = "ApplicationError"
	ChainSubmissionFailure Kind = "ChainSubmissionFailure"
	SignInFailure          Kind = "SignInFailure"
	CaptchaFailure         Kind = "CaptchaFailure"
	InvalidSecret          Kind = "InvalidSecret"
)

var ErrInvalidSecret = errors.New("invalid secret: seed phrase or private key required")

type OpError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Op, e.Kind, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func NewOpError(kind Kind, op string, err error) *OpError {
	return &OpError{Kind: kind, Op: op, Err: err}
}

// APIError is a non-zero err_code inside an otherwise successful HTTP response.
type APIError struct {
	Code int
	Body string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: err_code=%d body=%s", e.Code, e.Body)
}

// ChainError is a mined transaction whose receipt status is not successful.
type ChainError struct {
	TxHash string
	Status uint64
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("transaction failed: %s (status %d)", e.TxHash, e.Status)
}

// KindOf walks the error chain and returns the most specific kind it finds.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Kind
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return ApplicationError
	}
	var chainErr *ChainError
	if errors.As(err, &chainErr) {
		return ChainSubmissionFailure
	}
	if errors.Is(err, ErrInvalidSecret) {
		return InvalidSecret
	}
	return KindUnknown
}
