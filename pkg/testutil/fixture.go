package testutil

import (
	"context"

	"github.com/spinwheel-lab/backend/internal/entity"
	"github.com/spinwheel-lab/backend/internal/repository"
)

var (
	User1 = entity.User{
		Base:  entity.Base{ID: "user1"},
		Name:  "User1",
		Email: "user1@example.com",
	}

	User2 = entity.User{
		Base:  entity.Base{ID: "user2"},
		Name:  "User2",
		Email: "user2@example.com",
	}

	Subscription1 = entity.Subscription{
		Base:   entity.Base{ID: "subscription1"},
		UserID: User1.ID,
		Status: entity.SubscriptionActive,
	}
)

// CreateFixtureDb fills the database of ctx with two users: User1 has a
// healthy subscription, User2 has none.
func CreateFixtureDb(ctx context.Context) {
	insertUsers(ctx)
	insertSubscriptions(ctx)
}

func insertUsers(ctx context.Context) {
	userRepo := repository.NewUserRepository()

	for _, user := range []entity.User{User1, User2} {
		user := user
		if err := userRepo.Create(ctx, &user); err != nil {
			panic(err)
		}
	}
}

func insertSubscriptions(ctx context.Context) {
	subscriptionRepo := repository.NewSubscriptionRepository()

	sub := Subscription1
	if err := subscriptionRepo.Upsert(ctx, &sub); err != nil {
		panic(err)
	}
}
