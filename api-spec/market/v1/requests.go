package marketv1

import (
	"encoding/json"
	"fmt"

	marketlib "github.com/arkade-os/marketd/pkg/market-lib"
)

// SignedRequest is implemented by every request changing the state of the
// market on behalf of one or more identities. Signatures are in the same
// order as Signers.
type SignedRequest interface {
	Signers() []string
	GetSignatures() []string
	SetSignatures(signatures []string)
	GetValidUntil() int64
	// SigningPayload is the canonical JSON encoding of the request with the
	// signatures left out.
	SigningPayload() ([]byte, error)
}

// Sign signs the request for the given method with the keys of all its
// signers, in order.
func Sign(method string, req SignedRequest, keys ...*marketlib.KeyPair) error {
	signers := req.Signers()
	if len(keys) != len(signers) {
		return fmt.Errorf("expected %d signing keys, got %d", len(signers), len(keys))
	}

	payload, err := req.SigningPayload()
	if err != nil {
		return err
	}
	msg := marketlib.SigningMessage(method, payload)

	signatures := make([]string, 0, len(keys))
	for i, key := range keys {
		if key.Address().String() != signers[i] {
			return fmt.Errorf("key %d does not match signer %s", i, signers[i])
		}
		signatures = append(signatures, key.Sign(msg).String())
	}
	req.SetSignatures(signatures)
	return nil
}

type InitializeMarketplaceRequest struct {
	Admin      string   `json:"admin"`
	Seed       uint64   `json:"seed,string"`
	ValidUntil int64    `json:"validUntil"`
	Signatures []string `json:"signatures,omitempty"`
}

func (r *InitializeMarketplaceRequest) Signers() []string       { return []string{r.Admin} }
func (r *InitializeMarketplaceRequest) GetSignatures() []string { return r.Signatures }
func (r *InitializeMarketplaceRequest) GetValidUntil() int64    { return r.ValidUntil }
func (r *InitializeMarketplaceRequest) SetSignatures(sigs []string) {
	r.Signatures = sigs
}
func (r *InitializeMarketplaceRequest) SigningPayload() ([]byte, error) {
	unsigned := *r
	unsigned.Signatures = nil
	return json.Marshal(unsigned)
}

type InitializeMarketplaceResponse struct {
	Marketplace *Marketplace `json:"marketplace"`
}

type ListServiceRequest struct {
	Creator            string   `json:"creator"`
	Marketplace        string   `json:"marketplace"`
	Asset              string   `json:"asset"`
	Name               string   `json:"name"`
	Uri                string   `json:"uri"`
	Price              uint64   `json:"price,string"`
	Soulbound          bool     `json:"soulbound"`
	RoyaltyBasisPoints uint32   `json:"royaltyBasisPoints"`
	Hours              string   `json:"hours"`
	Terms              string   `json:"terms"`
	ValidUntil         int64    `json:"validUntil"`
	Signatures         []string `json:"signatures,omitempty"`
}

// Signers of a listing are the creator and the asset keypair, which proves
// the asset address is not squatted.
func (r *ListServiceRequest) Signers() []string       { return []string{r.Creator, r.Asset} }
func (r *ListServiceRequest) GetSignatures() []string { return r.Signatures }
func (r *ListServiceRequest) GetValidUntil() int64    { return r.ValidUntil }
func (r *ListServiceRequest) SetSignatures(sigs []string) {
	r.Signatures = sigs
}
func (r *ListServiceRequest) SigningPayload() ([]byte, error) {
	unsigned := *r
	unsigned.Signatures = nil
	return json.Marshal(unsigned)
}

type ListServiceResponse struct {
	Service *Service `json:"service"`
	Asset   *Asset   `json:"asset"`
}

type BuyServiceRequest struct {
	Buyer      string   `json:"buyer"`
	Service    string   `json:"service"`
	Asset      string   `json:"asset"`
	ValidUntil int64    `json:"validUntil"`
	Signatures []string `json:"signatures,omitempty"`
}

func (r *BuyServiceRequest) Signers() []string       { return []string{r.Buyer} }
func (r *BuyServiceRequest) GetSignatures() []string { return r.Signatures }
func (r *BuyServiceRequest) GetValidUntil() int64    { return r.ValidUntil }
func (r *BuyServiceRequest) SetSignatures(sigs []string) {
	r.Signatures = sigs
}
func (r *BuyServiceRequest) SigningPayload() ([]byte, error) {
	unsigned := *r
	unsigned.Signatures = nil
	return json.Marshal(unsigned)
}

type BuyServiceResponse struct {
	Receipt *Receipt `json:"receipt"`
}

type TransferAssetRequest struct {
	Authority  string   `json:"authority"`
	Asset      string   `json:"asset"`
	NewOwner   string   `json:"newOwner"`
	ValidUntil int64    `json:"validUntil"`
	Signatures []string `json:"signatures,omitempty"`
}

func (r *TransferAssetRequest) Signers() []string       { return []string{r.Authority} }
func (r *TransferAssetRequest) GetSignatures() []string { return r.Signatures }
func (r *TransferAssetRequest) GetValidUntil() int64    { return r.ValidUntil }
func (r *TransferAssetRequest) SetSignatures(sigs []string) {
	r.Signatures = sigs
}
func (r *TransferAssetRequest) SigningPayload() ([]byte, error) {
	unsigned := *r
	unsigned.Signatures = nil
	return json.Marshal(unsigned)
}

type TransferAssetResponse struct {
	Asset *Asset `json:"asset"`
}

type TransferFundsRequest struct {
	From       string   `json:"from"`
	To         string   `json:"to"`
	Amount     uint64   `json:"amount,string"`
	ValidUntil int64    `json:"validUntil"`
	Signatures []string `json:"signatures,omitempty"`
}

func (r *TransferFundsRequest) Signers() []string       { return []string{r.From} }
func (r *TransferFundsRequest) GetSignatures() []string { return r.Signatures }
func (r *TransferFundsRequest) GetValidUntil() int64    { return r.ValidUntil }
func (r *TransferFundsRequest) SetSignatures(sigs []string) {
	r.Signatures = sigs
}
func (r *TransferFundsRequest) SigningPayload() ([]byte, error) {
	unsigned := *r
	unsigned.Signatures = nil
	return json.Marshal(unsigned)
}

type TransferFundsResponse struct{}

type GetInfoRequest struct{}

type GetInfoResponse struct {
	Version    string `json:"version"`
	ProgramId  string `json:"programId"`
	TxFee      uint64 `json:"txFee,string"`
	MinReserve uint64 `json:"minReserve,string"`
}

type GetMarketplaceRequest struct {
	Address string `json:"address"`
}

type GetMarketplaceResponse struct {
	Marketplace *Marketplace `json:"marketplace"`
}

type GetServiceRequest struct {
	Address string `json:"address"`
}

type GetServiceResponse struct {
	Service *Service `json:"service"`
}

type ListServicesRequest struct {
	Marketplace string `json:"marketplace"`
}

type ListServicesResponse struct {
	Services []Service `json:"services"`
}

type GetAssetRequest struct {
	Address string `json:"address"`
}

type GetAssetResponse struct {
	Asset *Asset `json:"asset"`
}

type GetBalanceRequest struct {
	Address string `json:"address"`
}

type GetBalanceResponse struct {
	Balance uint64 `json:"balance,string"`
}

type GetHistoryRequest struct {
	Address string `json:"address"`
}

type GetHistoryResponse struct {
	Events []Event `json:"events"`
}

// SubscribeEventsRequest filters the stream to the events touching any of
// the given addresses. An empty list subscribes to everything.
type SubscribeEventsRequest struct {
	Addresses []string `json:"addresses,omitempty"`
}

// SubscribeEventsResponse carries either an event or a heartbeat.
type SubscribeEventsResponse struct {
	Event     *Event     `json:"event,omitempty"`
	Heartbeat *Heartbeat `json:"heartbeat,omitempty"`
}

type AirdropRequest struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount,string"`
}

type AirdropResponse struct {
	Balance uint64 `json:"balance,string"`
}
