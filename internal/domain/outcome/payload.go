package outcome

import (
	"fmt"

	"github.com/fatih/structs"
	"github.com/mitchellh/mapstructure"
	"github.com/spinwheel-lab/backend/internal/entity"
)

// Prize payloads are stored as a JSON map on the prize row and decoded into
// these typed structs where the redemption data is needed.

type DiscountPayload struct {
	Code    string `json:"code" mapstructure:"code" structs:"code"`
	Percent int    `json:"percent" mapstructure:"percent" structs:"percent"`
}

type CouponPayload struct {
	Code string `json:"code" mapstructure:"code" structs:"code"`
}

type DigitalRewardPayload struct {
	// DownloadURL is an opaque reference into the file store.
	DownloadURL string `json:"download_url" mapstructure:"download_url" structs:"download_url"`
}

type FreeGiftPayload struct {
	SKU string `json:"sku" mapstructure:"sku" structs:"sku"`
}

func EncodePayload(v any) entity.Map {
	return entity.Map(structs.Map(v))
}

func DecodePayload(m entity.Map, out any) error {
	return mapstructure.Decode(map[string]any(m), out)
}

// ValidatePayload checks at publish time that a prize carries the payload
// its type needs. Returning an error here is a ValidationError for the
// owner; participants never see these.
func ValidatePayload(prize *entity.Prize) error {
	switch prize.Type {
	case entity.PrizeDiscount:
		var payload DiscountPayload
		if err := DecodePayload(prize.Payload, &payload); err != nil {
			return err
		}
		if payload.Code == "" {
			return fmt.Errorf("discount prize %q needs a code", prize.Label)
		}
		if payload.Percent <= 0 || payload.Percent > 100 {
			return fmt.Errorf("discount prize %q needs a percent in (0, 100]", prize.Label)
		}

	case entity.PrizeCoupon:
		var payload CouponPayload
		if err := DecodePayload(prize.Payload, &payload); err != nil {
			return err
		}
		if payload.Code == "" {
			return fmt.Errorf("coupon prize %q needs a code", prize.Label)
		}

	case entity.PrizeDigitalReward:
		var payload DigitalRewardPayload
		if err := DecodePayload(prize.Payload, &payload); err != nil {
			return err
		}
		if payload.DownloadURL == "" {
			return fmt.Errorf("digital reward %q needs a download url", prize.Label)
		}
	}

	// The remaining types carry free-form or empty payloads.
	return nil
}
