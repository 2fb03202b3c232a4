package errors

import (
	"bytes"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"
	grpccodes "google.golang.org/grpc/codes"
)

// Code is the type representing a namespace error code.
type Code[MT any] struct {
	Code     uint16
	Name     string
	GrpcCode grpccodes.Code
}

// New creates a new error with the given code and the message
func (c Code[MT]) New(msg string, args ...any) TypedError[MT] {
	return &ErrorImpl[MT]{
		code:  c,
		cause: fmt.Errorf(msg, args...),
	}
}

// Wrap creates a new Error with the given code and the cause error
func (c Code[MT]) Wrap(cause error) TypedError[MT] {
	return &ErrorImpl[MT]{
		code:  c,
		cause: cause,
	}
}

func (c Code[MT]) String() string {
	return fmt.Sprintf("%s (%d)", c.Name, c.Code)
}

type Error interface {
	error
	Log() *log.Entry
	Code() uint16
	CodeName() string
	GrpcCode() grpccodes.Code
	Metadata() map[string]string
	Message() string
}

type TypedError[MT any] interface {
	Error
	WithMetadata(MT) TypedError[MT]
}

// ErrorImpl is the default concrete implementation of TypedError.
type ErrorImpl[MT any] struct {
	code     Code[MT]
	cause    error
	metadata MT
}

func (e *ErrorImpl[MT]) Log() *log.Entry {
	return log.WithField("name", e.code.Name).
		WithField("code", e.code.Code).
		WithField("metadata", e.metadata)
}

func (e *ErrorImpl[MT]) Metadata() map[string]string {
	// convert any metadata to map[string]string
	metadata := make(map[string]string)
	buf, err := json.Marshal(e.metadata)
	if err == nil {
		var genericMap map[string]any
		dec := json.NewDecoder(bytes.NewReader(buf))
		dec.UseNumber()
		if err := dec.Decode(&genericMap); err == nil {
			for k, v := range genericMap {
				vStr := ""
				if v != nil {
					vStr = fmt.Sprintf("%v", v)
				}
				metadata[k] = vStr
			}
		}
	}
	return metadata
}

func (e *ErrorImpl[MT]) GrpcCode() grpccodes.Code {
	return e.code.GrpcCode
}

func (e *ErrorImpl[MT]) Code() uint16 {
	return e.code.Code
}

func (e *ErrorImpl[MT]) CodeName() string {
	return e.code.Name
}

// Message returns the cause without the code prefix.
func (e *ErrorImpl[MT]) Message() string {
	return e.cause.Error()
}

// Error() implements the error interface.
func (e *ErrorImpl[MT]) Error() string {
	return fmt.Sprintf("%s: %s", e.code.String(), e.cause.Error())
}

func (e *ErrorImpl[MT]) Unwrap() error {
	return e.cause
}

func (e *ErrorImpl[MT]) WithMetadata(metadata MT) TypedError[MT] {
	e.metadata = metadata
	return e
}

type AddressMetadata struct {
	Address string `json:"address"`
}

type AddressProofMetadata struct {
	Address  string `json:"address"`
	Expected string `json:"expected"`
	Bump     uint8  `json:"bump"`
}

type InsufficientFundsMetadata struct {
	Buyer   string `json:"buyer"`
	Balance uint64 `json:"balance"`
	Price   uint64 `json:"price"`
}

type DelegationMetadata struct {
	Asset     string `json:"asset"`
	Authority string `json:"authority"`
	Delegate  string `json:"delegate"`
}

type ValueTransferMetadata struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

type InvalidSignatureMetadata struct {
	Signer string `json:"signer"`
	Method string `json:"method"`
}

type RequestExpiredMetadata struct {
	ValidUntil int64 `json:"valid_until"`
	Now        int64 `json:"now"`
}

var INTERNAL_ERROR = Code[map[string]any]{0, "INTERNAL_ERROR", grpccodes.Internal}

var ADDRESS_COLLISION = Code[AddressMetadata]{
	1,
	"ADDRESS_COLLISION",
	grpccodes.AlreadyExists,
}

var INSUFFICIENT_FUNDS = Code[InsufficientFundsMetadata]{
	2,
	"INSUFFICIENT_FUNDS",
	grpccodes.FailedPrecondition,
}

var ADDRESS_PROOF_MISMATCH = Code[AddressProofMetadata]{
	3,
	"ADDRESS_PROOF_MISMATCH",
	grpccodes.InvalidArgument,
}

var DELEGATION_DENIED = Code[DelegationMetadata]{
	4,
	"DELEGATION_DENIED",
	grpccodes.PermissionDenied,
}

var VALUE_TRANSFER_FAILURE = Code[ValueTransferMetadata]{
	5,
	"VALUE_TRANSFER_FAILURE",
	grpccodes.FailedPrecondition,
}
var ASSET_FROZEN = Code[AddressMetadata]{6, "ASSET_FROZEN", grpccodes.FailedPrecondition}

var MARKETPLACE_NOT_FOUND = Code[AddressMetadata]{
	7,
	"MARKETPLACE_NOT_FOUND",
	grpccodes.NotFound,
}
var SERVICE_NOT_FOUND = Code[AddressMetadata]{8, "SERVICE_NOT_FOUND", grpccodes.NotFound}
var ASSET_NOT_FOUND = Code[AddressMetadata]{9, "ASSET_NOT_FOUND", grpccodes.NotFound}
var INVALID_ARGUMENT = Code[map[string]any]{10, "INVALID_ARGUMENT", grpccodes.InvalidArgument}

var INVALID_SIGNATURE = Code[InvalidSignatureMetadata]{
	11,
	"INVALID_SIGNATURE",
	grpccodes.Unauthenticated,
}

var REQUEST_EXPIRED = Code[RequestExpiredMetadata]{
	12,
	"REQUEST_EXPIRED",
	grpccodes.InvalidArgument,
}
var REQUEST_REPLAYED = Code[any]{13, "REQUEST_REPLAYED", grpccodes.AlreadyExists}
