package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	ErrDelegationDenied = errors.New("authority is not allowed to transfer the asset")
	ErrAssetFrozen      = errors.New("asset is permanently frozen")
	ErrSameOwner        = errors.New("asset is already owned by the recipient")
	ErrInvalidOwner     = errors.New("invalid owner")

	ErrInvalidRoyalties = errors.New("invalid royalties")

	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBelowReserve        = errors.New("balance would fall below the minimum reserve")
	ErrBalanceOverflow     = errors.New("balance overflow")
)
