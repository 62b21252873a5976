package handler

import (
	"strconv"

	"earnhub/internal/models"
	"earnhub/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupQuiz struct {
	container *do.Injector
}

func (gr *groupQuiz) GetQuestions(c echo.Context) error {
	serviceQuiz, err := do.Invoke[*services.ServiceQuiz](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	if _, err := ResolveValidUser(ctx, gr.container); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	count, _ := strconv.Atoi(c.QueryParam("count"))
	questions, err := serviceQuiz.GetQuestions(ctx, count)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, questions, nil)
}

func (gr *groupQuiz) Submit(c echo.Context) error {
	serviceSettlement, err := do.Invoke[*services.ServiceSettlement](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload models.QuizSubmission
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	result, err := serviceSettlement.SettleQuiz(ctx, user, payload.Answers)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, result, nil)
}

func (gr *groupQuiz) Attempts(c echo.Context) error {
	serviceQuiz, err := do.Invoke[*services.ServiceQuiz](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	attempts, err := serviceQuiz.ListAttempts(ctx, user.ID, limit)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, attempts, nil)
}
