package outcome

import (
	"testing"

	"github.com/spinwheel-lab/backend/internal/entity"
	"github.com/stretchr/testify/require"
)

func Test_Pick(t *testing.T) {
	_, err := Pick(nil)
	require.Error(t, err)

	only := []entity.Prize{{Base: entity.Base{ID: "prize1"}, Type: entity.PrizeCoupon}}
	prize, err := Pick(only)
	require.NoError(t, err)
	require.Equal(t, "prize1", prize.ID)

	// A zero-weight prize still gets one share, so over many draws both
	// prizes must appear.
	prizes := []entity.Prize{
		{Base: entity.Base{ID: "prize1"}, Type: entity.PrizeCoupon, Weight: 0},
		{Base: entity.Base{ID: "prize2"}, Type: entity.PrizeNoWin, Weight: 0},
	}

	seen := map[string]int{}
	for i := 0; i < 200; i++ {
		prize, err := Pick(prizes)
		require.NoError(t, err)
		seen[prize.ID]++
	}

	require.Greater(t, seen["prize1"], 0)
	require.Greater(t, seen["prize2"], 0)
}

func Test_Pick_respectsWeights(t *testing.T) {
	prizes := []entity.Prize{
		{Base: entity.Base{ID: "prize1"}, Type: entity.PrizeCoupon, Weight: 99},
		{Base: entity.Base{ID: "prize2"}, Type: entity.PrizeNoWin, Weight: 1},
	}

	seen := map[string]int{}
	for i := 0; i < 1000; i++ {
		prize, err := Pick(prizes)
		require.NoError(t, err)
		seen[prize.ID]++
	}

	// With a 99:1 ratio the heavy prize must dominate. The bound is loose
	// enough to never flake.
	require.Greater(t, seen["prize1"], seen["prize2"])
	require.Greater(t, seen["prize1"], 900)
}

func Test_IsWin(t *testing.T) {
	require.True(t, IsWin(&entity.Prize{Type: entity.PrizeCoupon}))
	require.True(t, IsWin(&entity.Prize{Type: entity.PrizeDiscount}))
	require.False(t, IsWin(&entity.Prize{Type: entity.PrizeNoWin}))
}
