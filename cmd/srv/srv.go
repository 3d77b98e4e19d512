package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spinwheel-lab/backend/config"
	"github.com/spinwheel-lab/backend/internal/domain"
	"github.com/spinwheel-lab/backend/internal/repository"
	"github.com/spinwheel-lab/backend/pkg/logger"
	"github.com/spinwheel-lab/backend/pkg/router"
	"github.com/spinwheel-lab/backend/pkg/xcontext"
	"github.com/spinwheel-lab/backend/pkg/xredis"
	"github.com/urfave/cli/v2"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type srv struct {
	app *cli.App
	ctx context.Context

	configs *config.Configs
	logger  logger.Logger

	db          *gorm.DB
	redisClient xredis.Client

	campaignRepo     repository.CampaignRepository
	playRecordRepo   repository.PlayRecordRepository
	playCounterRepo  repository.PlayCounterRepository
	subscriptionRepo repository.SubscriptionRepository
	userRepo         repository.UserRepository

	campaignDomain      domain.CampaignDomain
	participationDomain domain.ParticipationDomain

	router *router.Router
	server *http.Server
}

func (s *srv) loadConfig() {
	s.configs = &config.Configs{
		Env:      "local",
		LogLevel: "INFO",
		Database: config.DatabaseConfigs{
			Host:     "localhost",
			Port:     "3306",
			User:     "root",
			Database: "spinwheel",
		},
		ApiServer: config.ServerConfigs{
			Host:         "localhost",
			Port:         "8080",
			MaxLimit:     50,
			DefaultLimit: 20,
		},
		Auth: config.AuthConfigs{
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Expiration: 24 * time.Hour,
			},
		},
		Session: config.SessionConfigs{
			Name: "session",
		},
		Redis: config.RedisConfigs{
			Addr: "localhost:6379",
		},
		Campaign: config.CampaignConfigs{
			ReferenceCodeLength:     10,
			DefaultRedemptionWindow: 72 * time.Hour,
			PreviewResultTTL:        15 * time.Minute,
			MaxReserveRetry:         3,
		},
	}

	path := os.Getenv("CONFIG")
	if path == "" {
		path = "config.toml"
	}

	if _, err := toml.DecodeFile(path, s.configs); err != nil && !os.IsNotExist(err) {
		panic(err)
	}

	// Secrets never live in the config file.
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		s.configs.Database.Password = v
	}
	if v := os.Getenv("TOKEN_SECRET"); v != "" {
		s.configs.Auth.TokenSecret = v
	}
	if v := os.Getenv("SESSION_SECRET"); v != "" {
		s.configs.Session.Secret = v
	}

	s.ctx = xcontext.WithConfigs(context.Background(), *s.configs)
}

func (s *srv) loadLogger() {
	s.logger = logger.NewLogger(logger.ParseLevel(s.configs.LogLevel))
	s.ctx = xcontext.WithLogger(s.ctx, s.logger)
}

func (s *srv) loadDatabase() {
	var err error
	s.db, err = gorm.Open(mysql.Open(s.configs.Database.ConnectionString()), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	s.ctx = xcontext.WithDB(s.ctx, s.db)
}

func (s *srv) loadRedis() {
	var err error
	s.redisClient, err = xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadRepos() {
	s.campaignRepo = repository.NewCampaignRepository()
	s.playRecordRepo = repository.NewPlayRecordRepository()
	s.playCounterRepo = repository.NewPlayCounterRepository()
	s.subscriptionRepo = repository.NewSubscriptionRepository()
	s.userRepo = repository.NewUserRepository()
}

func (s *srv) loadDomains() {
	s.campaignDomain = domain.NewCampaignDomain(
		s.campaignRepo, s.playRecordRepo, s.subscriptionRepo)
	s.participationDomain = domain.NewParticipationDomain(
		s.campaignRepo, s.playRecordRepo, s.playCounterRepo, s.redisClient)
}
