package account

import "errors"

var (
	ErrNotFound       = errors.New("account: not found")
	ErrDuplicateEmail = errors.New("account: email already registered")
	ErrInvalidInput   = errors.New("account: invalid input")
)
