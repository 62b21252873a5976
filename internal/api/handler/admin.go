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

type groupAdmin struct {
	container *do.Injector
}

func (gr *groupAdmin) CreateQuizQuestion(c echo.Context) error {
	serviceQuiz, err := do.Invoke[*services.ServiceQuiz](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	if _, err := ResolveAdmin(ctx, gr.container); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload struct {
		Question      string   `json:"question"`
		Options       []string `json:"options"`
		CorrectAnswer string   `json:"correct_answer"`
		Category      string   `json:"category"`
		Difficulty    string   `json:"difficulty"`
	}
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	question := &models.QuizQuestion{
		Question:      payload.Question,
		Options:       payload.Options,
		CorrectAnswer: payload.CorrectAnswer,
		Category:      payload.Category,
		Difficulty:    payload.Difficulty,
	}
	if err := serviceQuiz.CreateQuestion(ctx, question); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, question, nil)
}

func (gr *groupAdmin) CreateVideo(c echo.Context) error {
	serviceVideo, err := do.Invoke[*services.ServiceVideo](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	if _, err := ResolveAdmin(ctx, gr.container); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload models.Video
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	if err := serviceVideo.CreateVideo(ctx, &payload); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, payload, nil)
}

func (gr *groupAdmin) UpdateReferralSetting(c echo.Context) error {
	serviceReferral, err := do.Invoke[*services.ServiceReferral](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	if _, err := ResolveAdmin(ctx, gr.container); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload models.ReferralSetting
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	if err := serviceReferral.UpdateSetting(ctx, &payload); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, payload, nil)
}

func (gr *groupAdmin) PendingWithdrawals(c echo.Context) error {
	serviceWallet, err := do.Invoke[*services.ServiceWallet](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	if _, err := ResolveAdmin(ctx, gr.container); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	withdrawals, err := serviceWallet.ListPendingWithdrawals(ctx, limit)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, withdrawals, nil)
}

func (gr *groupAdmin) ApproveWithdrawal(c echo.Context) error {
	serviceWallet, err := do.Invoke[*services.ServiceWallet](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	if _, err := ResolveAdmin(ctx, gr.container); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	withdrawalID, err := strconv.ParseInt(c.Param("withdrawal"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	result, err := serviceWallet.ApproveWithdrawal(ctx, withdrawalID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, result, nil)
}

func (gr *groupAdmin) RejectWithdrawal(c echo.Context) error {
	serviceWallet, err := do.Invoke[*services.ServiceWallet](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	if _, err := ResolveAdmin(ctx, gr.container); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	withdrawalID, err := strconv.ParseInt(c.Param("withdrawal"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	if err := serviceWallet.RejectWithdrawal(ctx, withdrawalID); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, "ok", nil)
}

// Reconcile answers the drift between a user's wallet balance and the sum
// of their ledger.
func (gr *groupAdmin) Reconcile(c echo.Context) error {
	serviceWallet, err := do.Invoke[*services.ServiceWallet](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	if _, err := ResolveAdmin(ctx, gr.container); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	userID, err := strconv.ParseInt(c.Param("user"), 10, 64)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	drift, err := serviceWallet.Reconcile(ctx, userID)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, map[string]any{"user_id": userID, "drift": drift}, nil)
}

func (gr *groupAdmin) UpsertConfig(c echo.Context) error {
	serviceConfig, err := do.Invoke[*services.ServiceConfig](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	if _, err := ResolveAdmin(ctx, gr.container); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload models.Config
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	if err := serviceConfig.SetConfig(ctx, &payload); err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, payload, nil)
}
