package repository

import (
	"context"

	"github.com/spinwheel-lab/backend/internal/entity"
	"github.com/spinwheel-lab/backend/pkg/xcontext"
)

type SubscriptionRepository interface {
	Upsert(ctx context.Context, sub *entity.Subscription) error
	GetByUserID(ctx context.Context, userID string) (*entity.Subscription, error)
}

type subscriptionRepository struct{}

func NewSubscriptionRepository() *subscriptionRepository {
	return &subscriptionRepository{}
}

func (r *subscriptionRepository) Upsert(ctx context.Context, sub *entity.Subscription) error {
	tx := xcontext.DB(ctx).Model(&entity.Subscription{}).
		Where("user_id=?", sub.UserID).
		Updates(map[string]any{
			"status":                  sub.Status,
			"can_use_custom_branding": sub.CanUseCustomBranding,
			"can_use_digital_rewards": sub.CanUseDigitalRewards,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return xcontext.DB(ctx).Create(sub).Error
	}

	return nil
}

func (r *subscriptionRepository) GetByUserID(ctx context.Context, userID string) (*entity.Subscription, error) {
	var result entity.Subscription
	if err := xcontext.DB(ctx).Take(&result, "user_id=?", userID).Error; err != nil {
		return nil, err
	}

	return &result, nil
}
