package handler

import (
	"log"
	"net/http"

	"earnhub/internal/models"
	"earnhub/internal/services"

	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/hiendaovinh/toolkit/pkg/httpx-echo"
	"github.com/labstack/echo/v4"
	"github.com/samber/do"
)

type groupPayment struct {
	container *do.Injector
}

func (gr *groupPayment) Deposit(c echo.Context) error {
	servicePayment, err := do.Invoke[*services.ServicePayment](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	var payload models.DepositRequest
	if err := c.Bind(&payload); err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Validation))
	}

	deposit, err := servicePayment.InitiateDeposit(ctx, user.ID, &payload)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, deposit, nil)
}

func (gr *groupPayment) DepositStatus(c echo.Context) error {
	servicePayment, err := do.Invoke[*services.ServicePayment](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	ctx := c.Request().Context()
	user, err := ResolveValidUser(ctx, gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	deposit, err := servicePayment.GetDepositStatus(ctx, user.ID, c.Param("checkout"))
	if err != nil {
		return httpx.RestAbort(c, nil, err)
	}

	return httpx.RestAbort(c, deposit, nil)
}

// Callback is hit by Daraja, not by our clients. It always answers 200 so
// the gateway stops retrying; failures are logged server-side.
func (gr *groupPayment) Callback(c echo.Context) error {
	servicePayment, err := do.Invoke[*services.ServicePayment](gr.container)
	if err != nil {
		return httpx.RestAbort(c, nil, errorx.Wrap(err, errorx.Service))
	}

	var payload models.MpesaCallback
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusOK, map[string]any{"ResultCode": 1, "ResultDesc": "Rejected"})
	}

	if err := servicePayment.HandleCallback(c.Request().Context(), &payload); err != nil {
		log.Printf("mpesa callback %s: %v", payload.Body.StkCallback.CheckoutRequestID, err)
	}

	return c.JSON(http.StatusOK, map[string]any{"ResultCode": 0, "ResultDesc": "Accepted"})
}
