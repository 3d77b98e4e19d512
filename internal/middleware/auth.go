package middleware

import (
	"context"
	"strings"

	"github.com/spinwheel-lab/backend/pkg/errorx"
	"github.com/spinwheel-lab/backend/pkg/router"
	"github.com/spinwheel-lab/backend/pkg/xcontext"
)

type AuthVerifier struct {
	useAccessToken bool
}

func NewAuthVerifier() *AuthVerifier {
	return &AuthVerifier{}
}

func (a *AuthVerifier) WithAccessToken() *AuthVerifier {
	a.useAccessToken = true
	return a
}

func (a *AuthVerifier) Middleware() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		if a.useAccessToken {
			token := getAccessToken(ctx)
			if token == "" {
				return nil, errorx.New(errorx.Unauthenticated, "You need to authenticate before")
			}

			info, err := xcontext.TokenEngine(ctx).Verify(token)
			if err != nil {
				xcontext.Logger(ctx).Debugf("Cannot verify access token: %v", err)
				return nil, errorx.New(errorx.Unauthenticated, "Invalid access token")
			}

			return xcontext.WithRequestUserID(ctx, info.ID), nil
		}

		return nil, errorx.New(errorx.Unauthenticated, "You need to authenticate before")
	}
}

// getAccessToken prefers the Authorization header and falls back to the
// token cookie.
func getAccessToken(ctx context.Context) string {
	req := xcontext.HTTPRequest(ctx)
	if req == nil {
		return ""
	}

	if authorization := req.Header.Get("Authorization"); authorization != "" {
		token := strings.TrimPrefix(authorization, "Bearer ")
		return strings.TrimSpace(token)
	}

	cookie, err := req.Cookie(xcontext.Configs(ctx).Auth.AccessToken.Name)
	if err != nil {
		return ""
	}

	return cookie.Value
}
