package outcome

import (
	"testing"

	"github.com/spinwheel-lab/backend/internal/entity"
	"github.com/stretchr/testify/require"
)

func Test_EncodeDecodePayload(t *testing.T) {
	encoded := EncodePayload(DiscountPayload{Code: "SAVE10", Percent: 10})

	var decoded DiscountPayload
	require.NoError(t, DecodePayload(encoded, &decoded))
	require.Equal(t, "SAVE10", decoded.Code)
	require.Equal(t, 10, decoded.Percent)
}

func Test_ValidatePayload(t *testing.T) {
	valid := &entity.Prize{
		Label:   "10% off",
		Type:    entity.PrizeDiscount,
		Payload: entity.Map{"code": "SAVE10", "percent": 10},
	}
	require.NoError(t, ValidatePayload(valid))

	missingCode := &entity.Prize{
		Label:   "10% off",
		Type:    entity.PrizeDiscount,
		Payload: entity.Map{"percent": 10},
	}
	require.Error(t, ValidatePayload(missingCode))

	badPercent := &entity.Prize{
		Label:   "anything off",
		Type:    entity.PrizeDiscount,
		Payload: entity.Map{"code": "SAVE", "percent": 150},
	}
	require.Error(t, ValidatePayload(badPercent))

	emptyCoupon := &entity.Prize{
		Label:   "coupon",
		Type:    entity.PrizeCoupon,
		Payload: entity.Map{},
	}
	require.Error(t, ValidatePayload(emptyCoupon))

	// Losing segments and free-form types need no payload at all.
	require.NoError(t, ValidatePayload(&entity.Prize{Type: entity.PrizeNoWin}))
	require.NoError(t, ValidatePayload(&entity.Prize{Type: entity.PrizeCustom}))
}
