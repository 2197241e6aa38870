package models

import "strings"

// Native mint and symbol for the chain this tracker watches.
const (
	NativeMint   = "So11111111111111111111111111111111111111112"
	NativeSymbol = "SOL"
)

// Transaction types the webhook provider tags swap activity with.
const (
	TxTypeSwap     = "SWAP"
	TxTypeDexTrade = "DEX_TRADE"
)

// TransactionEvent is one enhanced transaction notification as delivered by
// the webhook provider. The payload is read-only to this system; fields we
// don't consume are left out.
type TransactionEvent struct {
	Type           string          `json:"type"`
	Description    string          `json:"description"`
	Signature      string          `json:"signature"`
	Timestamp      int64           `json:"timestamp"`
	Source         string          `json:"source,omitempty"`
	FeePayer       string          `json:"feePayer,omitempty"`
	TokenTransfers []TokenTransfer `json:"tokenTransfers"`
}

// TokenTransfer is one token movement inside a transaction.
type TokenTransfer struct {
	Mint            string  `json:"mint"`
	TokenAmount     float64 `json:"tokenAmount"`
	FromUserAccount string  `json:"fromUserAccount,omitempty"`
	ToUserAccount   string  `json:"toUserAccount,omitempty"`
}

// IsSwap reports whether the event is tagged as swap activity. Anything else
// in a webhook batch is ignored.
func (e *TransactionEvent) IsSwap() bool {
	switch strings.ToUpper(e.Type) {
	case TxTypeSwap, TxTypeDexTrade:
		return true
	}
	return false
}

// Swap is the structured record extracted from a TransactionEvent. Tokens are
// symbols when the description carried them, mint addresses otherwise.
type Swap struct {
	Trader     string
	FromToken  string
	FromAmount float64
	ToToken    string
	ToAmount   float64
	Signature  string
	Timestamp  int64
}

// IsNativeToken reports whether a token field of a Swap refers to the chain's
// native asset, by mint address or symbol.
func IsNativeToken(token string) bool {
	return token == NativeMint || strings.EqualFold(token, NativeSymbol)
}
