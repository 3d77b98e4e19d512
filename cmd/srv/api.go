package main

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/spinwheel-lab/backend/internal/common"
	"github.com/spinwheel-lab/backend/internal/middleware"
	"github.com/spinwheel-lab/backend/pkg/router"

	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(cctx *cli.Context) error {
	server.loadConfig()
	server.loadLogger()
	server.loadDatabase()
	server.loadRedis()
	server.loadRepos()
	server.loadDomains()
	server.loadRouter()

	registry := prometheus.NewRegistry()
	common.RegisterMetrics(registry)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", cors.AllowAll().Handler(s.router.Handler()))

	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%s", s.configs.ApiServer.Port),
		Handler: mux,
	}

	s.logger.Infof("Starting server on port: %s", s.configs.ApiServer.Port)
	if err := s.server.ListenAndServe(); err != nil {
		panic(err)
	}

	return nil
}

func (s *srv) loadRouter() {
	var err error
	s.router, err = router.New(s.db, *s.configs, s.logger)
	if err != nil {
		panic(err)
	}

	s.router.Before(middleware.WithStartTime())
	s.router.AddCloser(middleware.Logger())
	s.router.AddCloser(middleware.Prometheus())

	// Public participation API. No authentication; the eligibility engine
	// works from whatever identity the request carries.
	publicRouter := s.router.Branch()
	{
		router.GET(publicRouter, "/getPublicCampaign", s.participationDomain.GetPublicCampaign)
		router.GET(publicRouter, "/checkEligibility", s.participationDomain.CheckEligibility)
		router.POST(publicRouter, "/play", s.participationDomain.Play)
		router.POST(publicRouter, "/claim", s.participationDomain.Claim)
		router.GET(publicRouter, "/getRedemption", s.participationDomain.GetRedemption)
	}

	// These following APIs need authentication with only Access Token.
	authRouter := s.router.Branch()
	authRouter.Before(middleware.NewAuthVerifier().WithAccessToken().Middleware())
	{
		// Campaign API
		router.POST(authRouter, "/createCampaign", s.campaignDomain.Create)
		router.POST(authRouter, "/updateCampaign", s.campaignDomain.Update)
		router.POST(authRouter, "/publishCampaign", s.campaignDomain.Publish)
		router.POST(authRouter, "/unpublishCampaign", s.campaignDomain.Unpublish)
		router.POST(authRouter, "/pauseCampaign", s.campaignDomain.Pause)
		router.POST(authRouter, "/resumeCampaign", s.campaignDomain.Resume)
		router.POST(authRouter, "/rescheduleCampaign", s.campaignDomain.Reschedule)
		router.POST(authRouter, "/deleteCampaign", s.campaignDomain.Delete)
		router.GET(authRouter, "/getCampaign", s.campaignDomain.Get)
		router.GET(authRouter, "/getMyCampaigns", s.campaignDomain.GetMyList)
		router.GET(authRouter, "/getCampaignPlays", s.campaignDomain.GetPlays)

		// Preview API
		router.POST(authRouter, "/previewSpin", s.participationDomain.PreviewSpin)
		router.GET(authRouter, "/getPreviewResult", s.participationDomain.GetPreviewResult)
	}
}
