package eligibility

import (
	"testing"
	"time"

	"github.com/spinwheel-lab/backend/internal/entity"
	"github.com/spinwheel-lab/backend/internal/repository"
	"github.com/spinwheel-lab/backend/pkg/testutil"
	"github.com/spinwheel-lab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func Test_Engine_emailLimit(t *testing.T) {
	ctx := testutil.MockContext()
	engine := NewEngine(repository.NewPlayCounterRepository())

	rules := []entity.LimitRule{
		{Dimension: entity.LimitPerEmail, Threshold: 1},
	}
	identity := Identity{Email: "Foo@Example.com"}
	now := time.Now()

	denial, err := engine.Reserve(ctx, "campaign1", rules, identity, now)
	require.NoError(t, err)
	require.Nil(t, denial)

	// The same email, differently written, hits the same counter.
	denial, err = engine.Reserve(ctx, "campaign1", rules, Identity{Email: " foo@example.com "}, now)
	require.NoError(t, err)
	require.NotNil(t, denial)
	require.Equal(t, entity.LimitPerEmail, denial.Dimension)
	require.Equal(t, "Email limit reached", denial.Reason)

	// Another campaign is a different counter space.
	denial, err = engine.Reserve(ctx, "campaign2", rules, identity, now)
	require.NoError(t, err)
	require.Nil(t, denial)
}

func Test_Engine_checkDoesNotReserve(t *testing.T) {
	ctx := testutil.MockContext()
	engine := NewEngine(repository.NewPlayCounterRepository())

	rules := []entity.LimitRule{
		{Dimension: entity.LimitPerEmail, Threshold: 1},
	}
	identity := Identity{Email: "foo@example.com"}
	now := time.Now()

	for i := 0; i < 5; i++ {
		denial, err := engine.Check(ctx, "campaign1", rules, identity, now)
		require.NoError(t, err)
		require.Nil(t, denial)
	}

	denial, err := engine.Reserve(ctx, "campaign1", rules, identity, now)
	require.NoError(t, err)
	require.Nil(t, denial)

	denial, err = engine.Check(ctx, "campaign1", rules, identity, now)
	require.NoError(t, err)
	require.NotNil(t, denial)
}

func Test_Engine_cooldown(t *testing.T) {
	ctx := testutil.MockContext()
	engine := NewEngine(repository.NewPlayCounterRepository())

	rules := []entity.LimitRule{
		{Dimension: entity.LimitCooldown, DurationHours: 24},
	}
	identity := Identity{Email: "foo@example.com"}
	start := time.Now()

	denial, err := engine.Reserve(ctx, "campaign1", rules, identity, start)
	require.NoError(t, err)
	require.Nil(t, denial)

	denial, err = engine.Check(ctx, "campaign1", rules, identity, start.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, denial)
	require.Equal(t, "Please wait before playing again", denial.Reason)

	denial, err = engine.Reserve(ctx, "campaign1", rules, identity, start.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, denial)
	require.Equal(t, entity.LimitCooldown, denial.Dimension)

	denial, err = engine.Reserve(ctx, "campaign1", rules, identity, start.Add(25*time.Hour))
	require.NoError(t, err)
	require.Nil(t, denial)
}

func Test_Engine_dayWindowRollsOver(t *testing.T) {
	ctx := testutil.MockContext()
	engine := NewEngine(repository.NewPlayCounterRepository())

	rules := []entity.LimitRule{
		{Dimension: entity.LimitPerDay, Threshold: 1},
	}
	identity := Identity{Email: "foo@example.com"}
	today := time.Date(2023, 6, 15, 23, 30, 0, 0, time.UTC)

	denial, err := engine.Reserve(ctx, "campaign1", rules, identity, today)
	require.NoError(t, err)
	require.Nil(t, denial)

	denial, err = engine.Reserve(ctx, "campaign1", rules, identity, today)
	require.NoError(t, err)
	require.NotNil(t, denial)
	require.Equal(t, "Daily limit reached", denial.Reason)

	// One hour later is the next UTC day, so a fresh window.
	denial, err = engine.Reserve(ctx, "campaign1", rules, identity, today.Add(time.Hour))
	require.NoError(t, err)
	require.Nil(t, denial)
}

func Test_Engine_inapplicableRulePasses(t *testing.T) {
	ctx := testutil.MockContext()
	engine := NewEngine(repository.NewPlayCounterRepository())

	rules := []entity.LimitRule{
		{Dimension: entity.LimitPerEmail, Threshold: 1},
	}

	// The request carries no email, so a per-email rule cannot apply. The
	// device identity keeps the bundle non-empty.
	identity := Identity{DeviceID: "device1"}
	for i := 0; i < 3; i++ {
		denial, err := engine.Reserve(ctx, "campaign1", rules, identity, time.Now())
		require.NoError(t, err)
		require.Nil(t, denial)
	}
}

func Test_Engine_emptyIdentityIsDenied(t *testing.T) {
	ctx := testutil.MockContext()
	engine := NewEngine(repository.NewPlayCounterRepository())

	rules := []entity.LimitRule{
		{Dimension: entity.LimitTotal, Threshold: 100},
	}

	denial, err := engine.Reserve(ctx, "campaign1", rules, Identity{}, time.Now())
	require.NoError(t, err)
	require.NotNil(t, denial)
	require.Equal(t, "We could not identify this device", denial.Reason)

	// Without rules there is no quota to protect.
	denial, err = engine.Reserve(ctx, "campaign1", nil, Identity{}, time.Now())
	require.NoError(t, err)
	require.Nil(t, denial)
}

func Test_Engine_sharedDimensionUsesStrongestIdentity(t *testing.T) {
	ctx := testutil.MockContext()
	engine := NewEngine(repository.NewPlayCounterRepository())

	rules := []entity.LimitRule{
		{Dimension: entity.LimitTotal, Threshold: 1},
	}
	now := time.Now()

	denial, err := engine.Reserve(ctx, "campaign1", rules,
		Identity{Email: "foo@example.com", DeviceID: "device1"}, now)
	require.NoError(t, err)
	require.Nil(t, denial)

	// Same email keyed on the same counter even from another device.
	denial, err = engine.Reserve(ctx, "campaign1", rules,
		Identity{Email: "foo@example.com", DeviceID: "device2"}, now)
	require.NoError(t, err)
	require.NotNil(t, denial)
	require.Equal(t, "You have used all your plays", denial.Reason)
}

func Test_Engine_concurrentReserveAdmitsOne(t *testing.T) {
	ctx := testutil.MockContext()
	engine := NewEngine(repository.NewPlayCounterRepository())

	// The in-memory sqlite db needs a single connection so every goroutine
	// sees the same database.
	sqlDB, err := xcontext.DB(ctx).DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	rules := []entity.LimitRule{
		{Dimension: entity.LimitPerEmail, Threshold: 1},
	}
	identity := Identity{Email: "foo@example.com"}
	now := time.Now()

	admitted := make(chan struct{}, 50)
	var group errgroup.Group
	for i := 0; i < 50; i++ {
		group.Go(func() error {
			denial, err := engine.Reserve(ctx, "campaign1", rules, identity, now)
			if err != nil {
				return err
			}

			if denial == nil {
				admitted <- struct{}{}
			}
			return nil
		})
	}

	require.NoError(t, group.Wait())
	close(admitted)
	require.Len(t, admitted, 1)
}
