package sqlite

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/xraph/grove"

	"github.com/xraph/tokensale/account"
	"github.com/xraph/tokensale/event"
	"github.com/xraph/tokensale/group"
	"github.com/xraph/tokensale/id"
	"github.com/xraph/tokensale/sale"
	"github.com/xraph/tokensale/types"
)

// Amounts are stored as base-unit decimal strings; 256-bit values do not
// fit any native integer column.

// ==================== Sale state model ====================

type stateModel struct {
	grove.BaseModel `grove:"table:tokensale_state"`

	ID              string    `grove:"id,pk"`
	OutputAsset     string    `grove:"output_asset"`
	InputAsset      string    `grove:"input_asset"`
	SaleStart       time.Time `grove:"sale_start"`
	SaleDurationNS  int64     `grove:"sale_duration_ns"`
	TokenOutPrice   string    `grove:"token_out_price"`
	SaleRecipient   string    `grove:"sale_recipient"`
	InputLimit      string    `grove:"input_limit"`
	Whitelist       bool      `grove:"whitelist"`
	TotalIn         string    `grove:"total_in"`
	TotalOutBought  string    `grove:"total_out_bought"`
	TotalOutClaimed string    `grove:"total_out_claimed"`
	Initialized     bool      `grove:"initialized"`
	Finalized       bool      `grove:"finalized"`
	EventSeq        int64     `grove:"event_seq"`
	CreatedAt       time.Time `grove:"created_at"`
	UpdatedAt       time.Time `grove:"updated_at"`
}

func toStateModel(s *sale.State) *stateModel {
	return &stateModel{
		ID:              s.ID.String(),
		OutputAsset:     addrKey(s.Config.OutputAsset),
		InputAsset:      addrKey(s.Config.InputAsset),
		SaleStart:       s.Config.SaleStart.UTC(),
		SaleDurationNS:  int64(s.Config.SaleDuration),
		TokenOutPrice:   types.FormatAmount(s.Config.TokenOutPrice),
		SaleRecipient:   addrKey(s.Config.SaleRecipient),
		InputLimit:      types.FormatAmount(s.Config.InputLimit),
		Whitelist:       s.Config.Whitelist,
		TotalIn:         types.FormatAmount(s.Totals.TotalIn),
		TotalOutBought:  types.FormatAmount(s.Totals.TotalOutBought),
		TotalOutClaimed: types.FormatAmount(s.Totals.TotalOutClaimed),
		Initialized:     s.Initialized,
		Finalized:       s.Finalized,
		EventSeq:        int64(s.EventSeq), //nolint:gosec // sequence never reaches 2^63
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func fromStateModel(m *stateModel) (*sale.State, error) {
	saleID, err := id.ParseSaleID(m.ID)
	if err != nil {
		return nil, err
	}
	price, err := types.ParseAmount(m.TokenOutPrice)
	if err != nil {
		return nil, err
	}
	limit, err := types.ParseAmount(m.InputLimit)
	if err != nil {
		return nil, err
	}
	totalIn, err := types.ParseAmount(m.TotalIn)
	if err != nil {
		return nil, err
	}
	bought, err := types.ParseAmount(m.TotalOutBought)
	if err != nil {
		return nil, err
	}
	claimed, err := types.ParseAmount(m.TotalOutClaimed)
	if err != nil {
		return nil, err
	}

	return &sale.State{
		Entity: types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:     saleID,
		Config: sale.Config{
			OutputAsset:   common.HexToAddress(m.OutputAsset),
			InputAsset:    common.HexToAddress(m.InputAsset),
			SaleStart:     m.SaleStart.UTC(),
			SaleDuration:  time.Duration(m.SaleDurationNS),
			TokenOutPrice: price,
			SaleRecipient: common.HexToAddress(m.SaleRecipient),
			InputLimit:    limit,
			Whitelist:     m.Whitelist,
		},
		Totals: sale.Totals{
			TotalIn:         totalIn,
			TotalOutBought:  bought,
			TotalOutClaimed: claimed,
		},
		Initialized: m.Initialized,
		Finalized:   m.Finalized,
		EventSeq:    uint64(m.EventSeq), //nolint:gosec // written from a uint64
	}, nil
}

// ==================== Entitlement model ====================

type entitlementModel struct {
	grove.BaseModel `grove:"table:tokensale_entitlements"`

	Account      string    `grove:"account,pk"`
	BoughtAmount string    `grove:"bought_amount"`
	HasClaimed   bool      `grove:"has_claimed"`
	VotedGroup   int       `grove:"voted_group"`
	CreatedAt    time.Time `grove:"created_at"`
	UpdatedAt    time.Time `grove:"updated_at"`
}

func toEntitlementModel(e *account.Entitlement) *entitlementModel {
	return &entitlementModel{
		Account:      addrKey(e.Account),
		BoughtAmount: types.FormatAmount(e.BoughtAmount),
		HasClaimed:   e.HasClaimed,
		VotedGroup:   int(e.VotedGroup),
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func fromEntitlementModel(m *entitlementModel) (*account.Entitlement, error) {
	bought, err := types.ParseAmount(m.BoughtAmount)
	if err != nil {
		return nil, err
	}
	return &account.Entitlement{
		Entity:       types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Account:      common.HexToAddress(m.Account),
		BoughtAmount: bought,
		HasClaimed:   m.HasClaimed,
		VotedGroup:   uint8(m.VotedGroup), //nolint:gosec // column holds a uint8
	}, nil
}

// ==================== Group commitment model ====================

type commitmentModel struct {
	grove.BaseModel `grove:"table:tokensale_group_commitments"`

	GroupID int    `grove:"group_id,pk"`
	Amount  string `grove:"amount"`
}

func toCommitmentModel(c *group.Commitment) *commitmentModel {
	return &commitmentModel{GroupID: int(c.GroupID), Amount: types.FormatAmount(c.Amount)}
}

func fromCommitmentModel(m *commitmentModel) (*group.Commitment, error) {
	amount, err := types.ParseAmount(m.Amount)
	if err != nil {
		return nil, err
	}
	return &group.Commitment{GroupID: uint8(m.GroupID), Amount: amount}, nil //nolint:gosec // column holds a uint8
}

// ==================== Event model ====================

type eventModel struct {
	grove.BaseModel `grove:"table:tokensale_events"`

	ID         string          `grove:"id,pk"`
	Sequence   int64           `grove:"sequence"`
	Type       string          `grove:"type"`
	Attributes json.RawMessage `grove:"attributes"`
	Timestamp  time.Time       `grove:"timestamp"`
}

func toEventModel(r *event.Record) *eventModel {
	attrs, _ := json.Marshal(r.Attributes) //nolint:errcheck // map[string]string always marshals
	return &eventModel{
		ID:         r.ID.String(),
		Sequence:   int64(r.Sequence), //nolint:gosec // sequence never reaches 2^63
		Type:       string(r.Type),
		Attributes: attrs,
		Timestamp:  r.Timestamp.UTC(),
	}
}

func fromEventModel(m *eventModel) (*event.Record, error) {
	eventID, err := id.ParseEventID(m.ID)
	if err != nil {
		return nil, err
	}
	var attrs map[string]string
	if len(m.Attributes) > 0 {
		if err := json.Unmarshal(m.Attributes, &attrs); err != nil {
			return nil, fmt.Errorf("tokensale/sqlite: decode event %s attributes: %w", m.ID, err)
		}
	}
	return &event.Record{
		ID:         eventID,
		Sequence:   uint64(m.Sequence), //nolint:gosec // written from a uint64
		Type:       event.Type(m.Type),
		Attributes: attrs,
		Timestamp:  m.Timestamp.UTC(),
	}, nil
}

// addrKey is the canonical column form of an address. Lower-case hex sorts
// the same as the raw bytes.
func addrKey(a common.Address) string {
	return strings.ToLower(a.Hex())
}
