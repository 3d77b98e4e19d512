package eligibility

import (
	"encoding/hex"
	"strings"

	"github.com/spinwheel-lab/backend/internal/entity"
	"golang.org/x/crypto/sha3"
)

// Identity is the best-effort participant bundle derived from one request.
// Any subset of fields may be absent; it is never stored as such.
type Identity struct {
	Email    string
	Phone    string
	DeviceID string
	IP       string
}

func (id Identity) Normalize() Identity {
	return Identity{
		Email:    strings.ToLower(strings.TrimSpace(id.Email)),
		Phone:    strings.Map(keepPhoneRune, id.Phone),
		DeviceID: strings.TrimSpace(id.DeviceID),
		IP:       strings.TrimSpace(id.IP),
	}
}

func keepPhoneRune(r rune) rune {
	if r == ' ' || r == '-' || r == '(' || r == ')' || r == '.' {
		return -1
	}
	return r
}

func (id Identity) IsEmpty() bool {
	return id.Email == "" && id.Phone == "" && id.DeviceID == "" && id.IP == ""
}

// valueOf returns the identity value a dimension counts on, and whether the
// dimension applies to this bundle at all. The shared dimensions (day, week,
// total, cooldown) key on the strongest present signal so a participant
// cannot reset a window by dropping a weaker one.
func (id Identity) valueOf(dimension entity.LimitDimension) (string, bool) {
	switch dimension {
	case entity.LimitPerEmail:
		return id.Email, id.Email != ""
	case entity.LimitPerPhone:
		return id.Phone, id.Phone != ""
	case entity.LimitPerIP:
		return id.IP, id.IP != ""
	case entity.LimitPerDevice:
		return id.DeviceID, id.DeviceID != ""
	default:
		return id.primary()
	}
}

func (id Identity) primary() (string, bool) {
	for _, v := range []string{id.Email, id.Phone, id.DeviceID, id.IP} {
		if v != "" {
			return v, true
		}
	}

	return "", false
}

// hashValue digests an identity value before it becomes a counter key, so
// the counter table never holds raw emails or phone numbers.
func hashValue(value string) string {
	digest := sha3.Sum256([]byte(value))
	return hex.EncodeToString(digest[:])
}
