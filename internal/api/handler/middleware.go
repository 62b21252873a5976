package handler

import (
	"context"
	"errors"
	"strings"

	"earnhub/internal/interfaces"
	"earnhub/internal/models"
	"earnhub/internal/pkg/limiter"
	"earnhub/internal/services"

	"github.com/go-redis/redis_rate/v10"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type ctxKey string

var ctxKeyAuthUser ctxKey = "AUTH_USER"

// Authn does NOT terminate unauthenticated requests; handlers that need an
// identity fail later in ResolveValidUser. A present-but-invalid token is
// rejected here.
func Authn(verifier interface {
	Validate(token string) (*models.UserFromAuth, error)
},
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c)
			}

			parts := strings.Split(header, "Bearer")
			if len(parts) != 2 {
				return next(c)
			}

			token := strings.TrimSpace(parts[1])
			if len(token) == 0 {
				return next(c)
			}

			user, err := verifier.Validate(token)
			if err != nil {
				// although it's a client error, we don't want to leak details
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(errors.New("invalid access token"), errorx.Authn), -1)
				return nil
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, ctxKeyAuthUser, user)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func ResolveValidUser(ctx context.Context, container *do.Injector) (*models.User, error) {
	userAuth, ok := ctx.Value(ctxKeyAuthUser).(*models.UserFromAuth)
	if !ok {
		return nil, errorx.Wrap(errors.New("missing session"), errorx.Authn)
	}

	serviceUser, err := do.Invoke[*services.ServiceUser](container)
	if err != nil {
		return nil, err
	}

	return serviceUser.FindOrCreateUser(ctx, userAuth)
}

func ResolveAdmin(ctx context.Context, container *do.Injector) (*models.User, error) {
	user, err := ResolveValidUser(ctx, container)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		return nil, errorx.Wrap(errors.New("forbidden"), errorx.Authn)
	}

	return user, nil
}

// middlewareRewardRateLimit throttles the reward-earning endpoints per
// user. Unauthenticated requests fall through; ResolveValidUser rejects
// them in the handler anyway.
func middlewareRewardRateLimit(container *do.Injector, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			userAuth, ok := ctx.Value(ctxKeyAuthUser).(*models.UserFromAuth)
			if !ok {
				return next(c)
			}

			instance, err := do.Invoke[interfaces.Limiter](container)
			if err != nil {
				return next(c)
			}

			err = instance.Allow(ctx, services.LimitKeyUserAction(userAuth.ID, action), redis_rate.PerMinute(services.REWARD_ACTION_RATE_LIMIT_PER_MINUTE))
			if errors.Is(err, limiter.ErrRateLimited) {
				//nolint:errcheck
				httpx.Abort(c, errorx.Wrap(errors.New("too many requests"), errorx.RateLimiting), -1)
				return nil
			}
			// limiter backend errors do not block the request

			return next(c)
		}
	}
}
