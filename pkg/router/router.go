package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gorilla/sessions"
	"github.com/spinwheel-lab/backend/config"
	"github.com/spinwheel-lab/backend/internal/model"
	"github.com/spinwheel-lab/backend/pkg/authenticator"
	"github.com/spinwheel-lab/backend/pkg/errorx"
	"github.com/spinwheel-lab/backend/pkg/logger"
	"github.com/spinwheel-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

// MiddlewareFunc runs before a handler. It can extend the context; returning
// an error stops the chain and the handler never runs.
type MiddlewareFunc func(ctx context.Context) (context.Context, error)

// CloserFunc always runs after the handler, whether or not it succeeded.
type CloserFunc func(ctx context.Context)

type Router struct {
	mux *http.ServeMux

	cfg    config.Configs
	db     *gorm.DB
	logger logger.Logger

	tokenEngine  authenticator.TokenEngine[model.AccessToken]
	sessionStore sessions.Store
	snowFlake    *snowflake.Node

	befores []MiddlewareFunc
	afters  []MiddlewareFunc
	closers []CloserFunc
}

func New(db *gorm.DB, cfg config.Configs, logger logger.Logger) (*Router, error) {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return nil, err
	}

	r := &Router{
		mux:          http.NewServeMux(),
		cfg:          cfg,
		db:           db,
		logger:       logger,
		tokenEngine:  authenticator.NewTokenEngine[model.AccessToken](cfg.Auth.TokenSecret, cfg.Auth.AccessToken.Expiration),
		sessionStore: sessions.NewCookieStore([]byte(cfg.Session.Secret)),
		snowFlake:    node,
	}

	r.AddCloser(handleResponse())
	return r, nil
}

// Branch creates a router sharing the same mux but with an independent
// middleware chain. Middlewares added to the parent afterwards do not apply
// to the branch.
func (r *Router) Branch() *Router {
	branch := &Router{
		mux:          r.mux,
		cfg:          r.cfg,
		db:           r.db,
		logger:       r.logger,
		tokenEngine:  r.tokenEngine,
		sessionStore: r.sessionStore,
		snowFlake:    r.snowFlake,
	}

	branch.befores = append(branch.befores, r.befores...)
	branch.afters = append(branch.afters, r.afters...)
	branch.closers = append(branch.closers, r.closers...)
	return branch
}

func (r *Router) Before(m MiddlewareFunc) {
	r.befores = append(r.befores, m)
}

func (r *Router) After(m MiddlewareFunc) {
	r.afters = append(r.afters, m)
}

func (r *Router) AddCloser(c CloserFunc) {
	r.closers = append(r.closers, c)
}

func (r *Router) Static(pattern, root string) {
	r.mux.Handle(pattern, http.FileServer(http.Dir(root)))
}

func (r *Router) Handler() http.Handler {
	return r.mux
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.mux.HandleFunc(pattern, wrapHandler(r, http.MethodGet, handler))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.mux.HandleFunc(pattern, wrapHandler(r, http.MethodPost, handler))
}

func wrapHandler[Request, Response any](
	r *Router,
	method string,
	handler HandlerFunc[Request, Response],
) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := req.Context()
		ctx = xcontext.WithHTTPRequest(ctx, req)
		ctx = xcontext.WithHTTPWriter(ctx, w)
		ctx = xcontext.WithDB(ctx, r.db)
		ctx = xcontext.WithConfigs(ctx, r.cfg)
		ctx = xcontext.WithLogger(ctx, r.logger)
		ctx = xcontext.WithTokenEngine(ctx, r.tokenEngine)
		ctx = xcontext.WithSessionStore(ctx, r.sessionStore)
		ctx = xcontext.WithSnowFlake(ctx, r.snowFlake)

		defer func() {
			for _, closer := range r.closers {
				closer(ctx)
			}
		}()

		if req.Method != method {
			ctx = xcontext.WithError(ctx, errorx.New(errorx.BadRequest, "Not supported method %s", req.Method))
			return
		}

		var err error
		for _, m := range r.befores {
			var next context.Context
			next, err = m(ctx)
			if next != nil {
				ctx = next
			}

			if err != nil {
				ctx = xcontext.WithError(ctx, err)
				return
			}
		}

		var request Request
		if err := bindRequest(req, method, &request); err != nil {
			xcontext.Logger(ctx).Debugf("Cannot bind the request: %v", err)
			ctx = xcontext.WithError(ctx, errorx.New(errorx.BadRequest, "Cannot parse the request"))
			return
		}

		resp, err := handler(ctx, &request)
		if err != nil {
			ctx = xcontext.WithError(ctx, err)
		} else {
			ctx = xcontext.WithResponse(ctx, resp)
		}

		for _, m := range r.afters {
			next, err := m(ctx)
			if next != nil {
				ctx = next
			}

			if err != nil {
				ctx = xcontext.WithError(ctx, err)
				return
			}
		}
	}
}

func bindRequest(req *http.Request, method string, obj any) error {
	if method == http.MethodGet {
		return bindQuery(req.URL.Query(), obj)
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}

	if len(body) == 0 {
		return nil
	}

	return json.Unmarshal(body, obj)
}
