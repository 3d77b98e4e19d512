package repository

import (
	"context"
	"time"

	"github.com/spinwheel-lab/backend/internal/entity"
	"github.com/spinwheel-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type PlayRecordRepository interface {
	Create(ctx context.Context, record *entity.PlayRecord) error
	GetByID(ctx context.Context, id int64) (*entity.PlayRecord, error)
	GetByReferenceCode(ctx context.Context, code string) (*entity.PlayRecord, error)
	GetListByCampaignID(ctx context.Context, campaignID string, offset, limit int) ([]entity.PlayRecord, error)
	CountByCampaignID(ctx context.Context, campaignID string) (int64, error)
	CheckAndClaim(ctx context.Context, id int64, code string, claimedAt, expiresAt time.Time) error
}

type playRecordRepository struct{}

func NewPlayRecordRepository() *playRecordRepository {
	return &playRecordRepository{}
}

func (r *playRecordRepository) Create(ctx context.Context, record *entity.PlayRecord) error {
	return xcontext.DB(ctx).Create(record).Error
}

func (r *playRecordRepository) GetByID(ctx context.Context, id int64) (*entity.PlayRecord, error) {
	var result entity.PlayRecord
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *playRecordRepository) GetByReferenceCode(ctx context.Context, code string) (*entity.PlayRecord, error) {
	var result entity.PlayRecord
	if err := xcontext.DB(ctx).Take(&result, "reference_code=?", code).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *playRecordRepository) GetListByCampaignID(
	ctx context.Context, campaignID string, offset, limit int,
) ([]entity.PlayRecord, error) {
	var result []entity.PlayRecord
	err := xcontext.DB(ctx).Where("campaign_id=?", campaignID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *playRecordRepository) CountByCampaignID(ctx context.Context, campaignID string) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).Model(&entity.PlayRecord{}).
		Where("campaign_id=?", campaignID).Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// CheckAndClaim performs the one-way unclaimed to claimed transition. It
// refuses with gorm.ErrRecordNotFound if the play was already claimed, in
// which case the caller reads the original claim back.
func (r *playRecordRepository) CheckAndClaim(
	ctx context.Context, id int64, code string, claimedAt, expiresAt time.Time,
) error {
	tx := xcontext.DB(ctx).Model(&entity.PlayRecord{}).
		Where("id=? AND claim_state=?", id, entity.Unclaimed).
		Updates(map[string]any{
			"claim_state":           entity.Claimed,
			"reference_code":        code,
			"claimed_at":            claimedAt,
			"redemption_expires_at": expiresAt,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
