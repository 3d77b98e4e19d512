package outcome

import (
	"errors"

	"github.com/spinwheel-lab/backend/internal/entity"
	"github.com/spinwheel-lab/backend/pkg/crypto"
)

// Pick selects one prize segment by weighted random draw. Every play draws
// independently; there is no guaranteed-win sequencing across plays.
func Pick(prizes []entity.Prize) (*entity.Prize, error) {
	if len(prizes) == 0 {
		return nil, errors.New("no prizes configured")
	}

	total := 0
	for i := range prizes {
		total += weightOf(&prizes[i])
	}

	roll := crypto.RandIntn(total)
	for i := range prizes {
		roll -= weightOf(&prizes[i])
		if roll < 0 {
			return &prizes[i], nil
		}
	}

	return &prizes[len(prizes)-1], nil
}

// weightOf treats an unset weight as one share, so a campaign that
// configures no weights at all draws uniformly.
func weightOf(prize *entity.Prize) int {
	if prize.Weight <= 0 {
		return 1
	}

	return prize.Weight
}

// IsWin reports whether a resolved prize is an actual win. Losing segments
// exist so a wheel can show "better luck next time".
func IsWin(prize *entity.Prize) bool {
	return prize.Type != entity.PrizeNoWin
}
