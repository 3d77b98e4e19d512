package entity

import (
	"context"

	"github.com/spinwheel-lab/backend/pkg/xcontext"
)

func MigrateTable(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&User{},
		&Campaign{},
		&Prize{},
		&LimitRule{},
		&PlayRecord{},
		&PlayCounter{},
		&Subscription{},
	)
}
