package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spinwheel-lab/backend/internal/entity"
	"github.com/spinwheel-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

// ErrLimitReached reports that a counter already sits at its ceiling, or that
// a cooldown window has not elapsed yet.
var ErrLimitReached = errors.New("limit reached")

// ErrCounterConflict reports a lost counter-creation race. The operation is
// safe to retry.
var ErrCounterConflict = errors.New("counter creation conflict")

// CounterKey is the full coordinate of one quota counter.
type CounterKey struct {
	CampaignID   string
	Dimension    entity.LimitDimension
	IdentityHash string
	Window       string
}

func (k CounterKey) String() string {
	return strings.Join([]string{k.CampaignID, string(k.Dimension), k.IdentityHash, k.Window}, "|")
}

type PlayCounterRepository interface {
	Get(ctx context.Context, key CounterKey) (*entity.PlayCounter, error)
	CheckAndIncrement(ctx context.Context, key CounterKey, threshold int, now time.Time) error
	CheckAndTouch(ctx context.Context, key CounterKey, lastBefore, now time.Time) error
}

type playCounterRepository struct{}

func NewPlayCounterRepository() *playCounterRepository {
	return &playCounterRepository{}
}

func (r *playCounterRepository) Get(ctx context.Context, key CounterKey) (*entity.PlayCounter, error) {
	var result entity.PlayCounter
	if err := xcontext.DB(ctx).Take(&result, "id=?", key.String()).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

// CheckAndIncrement reserves one slot of the counter. The guard and the
// increment are a single UPDATE so two concurrent plays can never both take
// the last slot.
func (r *playCounterRepository) CheckAndIncrement(
	ctx context.Context, key CounterKey, threshold int, now time.Time,
) error {
	if threshold < 1 {
		return ErrLimitReached
	}

	tx := xcontext.DB(ctx).Model(&entity.PlayCounter{}).
		Where("id=? AND count < ?", key.String(), threshold).
		Updates(map[string]any{
			"count":        gorm.Expr("count+?", 1),
			"last_play_at": now,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 1 {
		return nil
	}

	// Either the counter is at its ceiling or the row does not exist yet.
	err := xcontext.DB(ctx).Take(&entity.PlayCounter{}, "id=?", key.String()).Error
	if err == nil {
		return ErrLimitReached
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := xcontext.DB(ctx).Create(r.newCounter(key, now)).Error; err != nil {
		// Another request created the row between our read and write.
		return fmt.Errorf("%w: %v", ErrCounterConflict, err)
	}

	return nil
}

// CheckAndTouch reserves a cooldown slot: it succeeds only if the previous
// play happened at or before lastBefore.
func (r *playCounterRepository) CheckAndTouch(
	ctx context.Context, key CounterKey, lastBefore, now time.Time,
) error {
	tx := xcontext.DB(ctx).Model(&entity.PlayCounter{}).
		Where("id=? AND last_play_at <= ?", key.String(), lastBefore).
		Updates(map[string]any{
			"count":        gorm.Expr("count+?", 1),
			"last_play_at": now,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 1 {
		return nil
	}

	err := xcontext.DB(ctx).Take(&entity.PlayCounter{}, "id=?", key.String()).Error
	if err == nil {
		return ErrLimitReached
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := xcontext.DB(ctx).Create(r.newCounter(key, now)).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrCounterConflict, err)
	}

	return nil
}

func (r *playCounterRepository) newCounter(key CounterKey, now time.Time) *entity.PlayCounter {
	return &entity.PlayCounter{
		ID:           key.String(),
		CampaignID:   key.CampaignID,
		Dimension:    key.Dimension,
		IdentityHash: key.IdentityHash,
		Window:       key.Window,
		Count:        1,
		LastPlayAt:   now,
	}
}
