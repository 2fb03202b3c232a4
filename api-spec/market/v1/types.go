package marketv1

type Marketplace struct {
	Address   string `json:"address"`
	Admin     string `json:"admin"`
	Seed      uint64 `json:"seed,string"`
	Bump      uint32 `json:"bump"`
	CreatedAt int64  `json:"createdAt"`
}

type Service struct {
	Address     string `json:"address"`
	Marketplace string `json:"marketplace"`
	Creator     string `json:"creator"`
	Asset       string `json:"asset"`
	Name        string `json:"name"`
	Uri         string `json:"uri"`
	Price       uint64 `json:"price,string"`
	Soulbound   bool   `json:"soulbound"`
	Bump        uint32 `json:"bump"`
	CreatedAt   int64  `json:"createdAt"`
}

type Creator struct {
	Address    string `json:"address"`
	Percentage uint32 `json:"percentage"`
}

type Royalties struct {
	BasisPoints uint32    `json:"basisPoints"`
	Creators    []Creator `json:"creators"`
}

type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Asset struct {
	Address       string      `json:"address"`
	Owner         string      `json:"owner"`
	Name          string      `json:"name"`
	Uri           string      `json:"uri"`
	Policy        string      `json:"policy"`
	Delegate      string      `json:"delegate"`
	Frozen        bool        `json:"frozen"`
	Sealed        bool        `json:"sealed"`
	Royalties     Royalties   `json:"royalties"`
	Attributes    []Attribute `json:"attributes"`
	TransferCount uint32      `json:"transferCount"`
	CreatedAt     int64       `json:"createdAt"`
	UpdatedAt     int64       `json:"updatedAt"`
}

type Receipt struct {
	Id        string `json:"id"`
	Service   string `json:"service"`
	Asset     string `json:"asset"`
	Buyer     string `json:"buyer"`
	Seller    string `json:"seller"`
	Price     uint64 `json:"price,string"`
	Fee       uint64 `json:"fee,string"`
	Timestamp int64  `json:"timestamp"`
}

type Event struct {
	Id          string `json:"id"`
	Type        string `json:"type"`
	Marketplace string `json:"marketplace,omitempty"`
	Service     string `json:"service,omitempty"`
	Asset       string `json:"asset,omitempty"`
	From        string `json:"from,omitempty"`
	To          string `json:"to,omitempty"`
	Amount      uint64 `json:"amount,string"`
	Fee         uint64 `json:"fee,string"`
	Timestamp   int64  `json:"timestamp"`
}

type Heartbeat struct{}

// ErrorDetails is attached to every error status returned by the server.
type ErrorDetails struct {
	Code     int32             `json:"code"`
	Name     string            `json:"name"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
