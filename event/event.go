// Package event defines the notifications a sale emits and the journal
// record they are persisted as.
package event

import (
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/xraph/tokensale/types"
)

// Type names an event kind.
type Type string

const (
	TypeInitialized          Type = "sale.initialized"
	TypeSale                 Type = "sale.purchased"
	TypeClaim                Type = "sale.claimed"
	TypeFinalized            Type = "sale.finalized"
	TypeSaleStartUpdated     Type = "sale.start_updated"
	TypeSaleDurationUpdated  Type = "sale.duration_updated"
	TypeTokenOutPriceUpdated Type = "sale.price_updated"
	TypeSaleRecipientUpdated Type = "sale.recipient_updated"
	TypeWhitelistUpdated     Type = "sale.whitelist_updated"
	TypeInputLimitUpdated    Type = "sale.input_limit_updated"
	TypeSwept                Type = "sale.swept"
	TypePaused               Type = "sale.paused"
	TypeUnpaused             Type = "sale.unpaused"
	TypeOwnershipTransferred Type = "sale.ownership_transferred"
)

// Event is a typed sale notification.
type Event interface {
	Type() Type
	// Attributes flattens the payload into string key/value pairs for the
	// journal.
	Attributes() map[string]string
}

// Initialized is emitted once by a successful initialization.
type Initialized struct {
	OutputAsset   common.Address
	InputAsset    common.Address
	SaleStart     time.Time
	SaleDuration  time.Duration
	TokenOutPrice *uint256.Int
	SaleRecipient common.Address
	InputLimit    *uint256.Int
	Whitelist     bool
}

func (Initialized) Type() Type { return TypeInitialized }

func (e Initialized) Attributes() map[string]string {
	return map[string]string{
		"output_asset":    e.OutputAsset.Hex(),
		"input_asset":     e.InputAsset.Hex(),
		"sale_start":      formatTime(e.SaleStart),
		"sale_duration":   e.SaleDuration.String(),
		"token_out_price": types.FormatAmount(e.TokenOutPrice),
		"sale_recipient":  e.SaleRecipient.Hex(),
		"input_limit":     types.FormatAmount(e.InputLimit),
		"whitelist":       strconv.FormatBool(e.Whitelist),
	}
}

// Sale is emitted for every accepted purchase.
type Sale struct {
	Buyer     common.Address
	GroupID   uint8
	AmountIn  *uint256.Int
	AmountOut *uint256.Int
}

func (Sale) Type() Type { return TypeSale }

func (e Sale) Attributes() map[string]string {
	return map[string]string{
		"buyer":      e.Buyer.Hex(),
		"group_id":   strconv.Itoa(int(e.GroupID)),
		"amount_in":  types.FormatAmount(e.AmountIn),
		"amount_out": types.FormatAmount(e.AmountOut),
	}
}

// Claim is emitted when a buyer redeems their entitlement.
type Claim struct {
	Claimer common.Address
	Amount  *uint256.Int
}

func (Claim) Type() Type { return TypeClaim }

func (e Claim) Attributes() map[string]string {
	return map[string]string{
		"claimer": e.Claimer.Hex(),
		"amount":  types.FormatAmount(e.Amount),
	}
}

// Finalized is emitted when claims open.
type Finalized struct {
	TotalIn        *uint256.Int
	TotalOutBought *uint256.Int
}

func (Finalized) Type() Type { return TypeFinalized }

func (e Finalized) Attributes() map[string]string {
	return map[string]string{
		"total_in":         types.FormatAmount(e.TotalIn),
		"total_out_bought": types.FormatAmount(e.TotalOutBought),
	}
}

// SaleStartUpdated carries the new start time.
type SaleStartUpdated struct{ SaleStart time.Time }

func (SaleStartUpdated) Type() Type { return TypeSaleStartUpdated }

func (e SaleStartUpdated) Attributes() map[string]string {
	return map[string]string{"sale_start": formatTime(e.SaleStart)}
}

// SaleDurationUpdated carries the new duration.
type SaleDurationUpdated struct{ SaleDuration time.Duration }

func (SaleDurationUpdated) Type() Type { return TypeSaleDurationUpdated }

func (e SaleDurationUpdated) Attributes() map[string]string {
	return map[string]string{"sale_duration": e.SaleDuration.String()}
}

// TokenOutPriceUpdated carries the new price.
type TokenOutPriceUpdated struct{ TokenOutPrice *uint256.Int }

func (TokenOutPriceUpdated) Type() Type { return TypeTokenOutPriceUpdated }

func (e TokenOutPriceUpdated) Attributes() map[string]string {
	return map[string]string{"token_out_price": types.FormatAmount(e.TokenOutPrice)}
}

// SaleRecipientUpdated carries the new recipient.
type SaleRecipientUpdated struct{ Recipient common.Address }

func (SaleRecipientUpdated) Type() Type { return TypeSaleRecipientUpdated }

func (e SaleRecipientUpdated) Attributes() map[string]string {
	return map[string]string{"recipient": e.Recipient.Hex()}
}

// WhitelistUpdated reports whether a whitelist is now configured.
type WhitelistUpdated struct{ Enabled bool }

func (WhitelistUpdated) Type() Type { return TypeWhitelistUpdated }

func (e WhitelistUpdated) Attributes() map[string]string {
	return map[string]string{"enabled": strconv.FormatBool(e.Enabled)}
}

// InputLimitUpdated carries the new intake cap.
type InputLimitUpdated struct{ InputLimit *uint256.Int }

func (InputLimitUpdated) Type() Type { return TypeInputLimitUpdated }

func (e InputLimitUpdated) Attributes() map[string]string {
	return map[string]string{"input_limit": types.FormatAmount(e.InputLimit)}
}

// Swept is emitted when surplus tokens leave the ledger's custody.
type Swept struct {
	Asset     common.Address
	Recipient common.Address
	Amount    *uint256.Int
}

func (Swept) Type() Type { return TypeSwept }

func (e Swept) Attributes() map[string]string {
	return map[string]string{
		"token":     e.Asset.Hex(),
		"recipient": e.Recipient.Hex(),
		"amount":    types.FormatAmount(e.Amount),
	}
}

// Paused records who engaged the pause gate.
type Paused struct{ Account common.Address }

func (Paused) Type() Type { return TypePaused }

func (e Paused) Attributes() map[string]string {
	return map[string]string{"account": e.Account.Hex()}
}

// Unpaused records who released the pause gate.
type Unpaused struct{ Account common.Address }

func (Unpaused) Type() Type { return TypeUnpaused }

func (e Unpaused) Attributes() map[string]string {
	return map[string]string{"account": e.Account.Hex()}
}

// OwnershipTransferred records an owner change.
type OwnershipTransferred struct {
	PreviousOwner common.Address
	NewOwner      common.Address
}

func (OwnershipTransferred) Type() Type { return TypeOwnershipTransferred }

func (e OwnershipTransferred) Attributes() map[string]string {
	return map[string]string{
		"previous_owner": e.PreviousOwner.Hex(),
		"new_owner":      e.NewOwner.Hex(),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
