package event_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"

	"github.com/xraph/tokensale/event"
	"github.com/xraph/tokensale/id"
)

func TestAttributes(t *testing.T) {
	buyer := common.HexToAddress("0xb0b")

	tests := []struct {
		name  string
		event event.Event
		typ   event.Type
		want  map[string]string
	}{
		{
			name:  "sale",
			event: event.Sale{Buyer: buyer, GroupID: 3, AmountIn: uint256.NewInt(10), AmountOut: uint256.NewInt(20)},
			typ:   event.TypeSale,
			want: map[string]string{
				"buyer": buyer.Hex(), "group_id": "3", "amount_in": "10", "amount_out": "20",
			},
		},
		{
			name:  "claim",
			event: event.Claim{Claimer: buyer, Amount: uint256.NewInt(7)},
			typ:   event.TypeClaim,
			want:  map[string]string{"claimer": buyer.Hex(), "amount": "7"},
		},
		{
			name:  "swept",
			event: event.Swept{Asset: buyer, Recipient: buyer, Amount: uint256.NewInt(5)},
			typ:   event.TypeSwept,
			want:  map[string]string{"token": buyer.Hex(), "recipient": buyer.Hex(), "amount": "5"},
		},
		{
			name:  "duration",
			event: event.SaleDurationUpdated{SaleDuration: 24 * time.Hour},
			typ:   event.TypeSaleDurationUpdated,
			want:  map[string]string{"sale_duration": "24h0m0s"},
		},
		{
			name:  "nil limit renders zero",
			event: event.InputLimitUpdated{},
			typ:   event.TypeInputLimitUpdated,
			want:  map[string]string{"input_limit": "0"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, tt.event.Type())
			assert.Equal(t, tt.want, tt.event.Attributes())
		})
	}
}

func TestNewRecord(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("x", 3600))
	rec := event.NewRecord(9, event.Finalized{TotalIn: uint256.NewInt(1), TotalOutBought: uint256.NewInt(2)}, at)

	assert.Equal(t, id.PrefixEvent, rec.ID.Prefix())
	assert.Equal(t, uint64(9), rec.Sequence)
	assert.Equal(t, event.TypeFinalized, rec.Type)
	assert.Equal(t, time.UTC, rec.Timestamp.Location())
	assert.Equal(t, "2", rec.Attributes["total_out_bought"])
}
