package handler

import (
	"earnhub/internal/models"
	"earnhub/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupLeaderboard struct {
	container *do.Injector
}

func (gr *groupLeaderboard) get(c echo.Context, board string) error {
	serviceLeaderboard, err := do.Invoke[*services.ServiceLeaderboard](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()

	// leaderboards are public; the caller's rank only rides along when
	// authenticated
	var userID int64
	if userAuth, ok := ctx.Value(ctxKeyAuthUser).(*models.UserFromAuth); ok {
		user, err := ResolveValidUser(ctx, gr.container)
		if err == nil {
			userID = user.ID
		} else {
			userID = userAuth.ID
		}
	}

	response, err := serviceLeaderboard.GetLeaderboard(ctx, board, userID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, response, nil)
}

func (gr *groupLeaderboard) GetOverall(c echo.Context) error {
	return gr.get(c, services.LEADERBOARD_OVERALL)
}

func (gr *groupLeaderboard) GetWeekly(c echo.Context) error {
	return gr.get(c, services.LEADERBOARD_WEEKLY)
}
