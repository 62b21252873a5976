package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"time"

	"earnhub/internal/datastore"
	"earnhub/internal/models"

	"github.com/gojek/heimdall/v7/httpclient"
	"github.com/hiendaovinh/toolkit/pkg/errorx"
	"github.com/samber/do"
	"github.com/uptrace/bun"
)

var phonePattern = regexp.MustCompile(`^254[17]\d{8}$`)

// MpesaConfig holds the Daraja credentials, provided by the api binary from
// the environment.
type MpesaConfig struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	CallbackURL    string
}

type ServicePayment struct {
	container         *do.Injector
	postgresDB        *bun.DB
	config            MpesaConfig
	client            *httpclient.Client
	serviceSettlement *ServiceSettlement
}

func NewServicePayment(container *do.Injector) (*ServicePayment, error) {
	postgresDB, err := do.Invoke[*bun.DB](container)
	if err != nil {
		return nil, err
	}

	config, err := do.Invoke[MpesaConfig](container)
	if err != nil {
		return nil, err
	}

	serviceSettlement, err := do.Invoke[*ServiceSettlement](container)
	if err != nil {
		return nil, err
	}

	client := httpclient.NewClient(
		httpclient.WithHTTPTimeout(15*time.Second),
		httpclient.WithRetryCount(2),
	)

	return &ServicePayment{container, postgresDB, config, client, serviceSettlement}, nil
}

func (service *ServicePayment) accessToken(ctx context.Context) (string, error) {
	credentials := base64.StdEncoding.EncodeToString([]byte(service.config.ConsumerKey + ":" + service.config.ConsumerSecret))

	headers := http.Header{}
	headers.Set("Authorization", "Basic "+credentials)

	res, err := service.client.Get(service.config.BaseURL+"/oauth/v1/generate?grant_type=client_credentials", headers)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("mpesa oauth: status %d: %s", res.StatusCode, body)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", err
	}

	return payload.AccessToken, nil
}

type stkPushRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            string `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkPushResponse struct {
	CheckoutRequestID string `json:"CheckoutRequestID"`
	ResponseCode      string `json:"ResponseCode"`
	ResponseDesc      string `json:"ResponseDescription"`
	CustomerMessage   string `json:"CustomerMessage"`
}

// InitiateDeposit fires an STK push at the customer's phone and records a
// pending deposit keyed by Daraja's CheckoutRequestID. Nothing is credited
// until the callback confirms payment.
func (service *ServicePayment) InitiateDeposit(ctx context.Context, userID int64, request *models.DepositRequest) (*models.Deposit, error) {
	if request.Amount < 1 {
		return nil, errorx.Wrap(errors.New("amount must be at least 1"), errorx.Validation)
	}
	if !phonePattern.MatchString(request.Phone) {
		return nil, errorx.Wrap(errors.New("phone must be in 2547XXXXXXXX format"), errorx.Validation)
	}

	token, err := service.accessToken(ctx)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	timestamp := time.Now().Format("20060102150405")
	password := base64.StdEncoding.EncodeToString([]byte(service.config.ShortCode + service.config.Passkey + timestamp))

	body, err := json.Marshal(stkPushRequest{
		BusinessShortCode: service.config.ShortCode,
		Password:          password,
		Timestamp:         timestamp,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            fmt.Sprintf("%.0f", request.Amount),
		PartyA:            request.Phone,
		PartyB:            service.config.ShortCode,
		PhoneNumber:       request.Phone,
		CallBackURL:       service.config.CallbackURL,
		AccountReference:  fmt.Sprintf("user-%d", userID),
		TransactionDesc:   "Wallet deposit",
	})
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+token)
	headers.Set("Content-Type", "application/json")

	res, err := service.client.Post(service.config.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(body), headers)
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	defer res.Body.Close()

	var push stkPushResponse
	if err := json.NewDecoder(res.Body).Decode(&push); err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	if push.ResponseCode != "0" || push.CheckoutRequestID == "" {
		return nil, errorx.Wrap(fmt.Errorf("stk push rejected: %s", push.ResponseDesc), errorx.Service)
	}

	deposit := &models.Deposit{
		UserID:            userID,
		Amount:            request.Amount,
		Phone:             request.Phone,
		CheckoutRequestID: push.CheckoutRequestID,
		Status:            models.DEPOSIT_PENDING,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	if err := datastore.InsertDeposit(ctx, service.postgresDB, deposit); err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}

	return deposit, nil
}

// HandleCallback settles or fails the deposit named by the callback.
// Daraja retries callbacks, so both paths tolerate replays.
func (service *ServicePayment) HandleCallback(ctx context.Context, callback *models.MpesaCallback) error {
	checkoutRequestID := callback.Body.StkCallback.CheckoutRequestID
	if checkoutRequestID == "" {
		return errorx.Wrap(errors.New("missing checkout request id"), errorx.Validation)
	}

	deposit, err := datastore.GetDepositByCheckoutID(ctx, service.postgresDB, checkoutRequestID)
	if errors.Is(err, sql.ErrNoRows) {
		return errorx.Wrap(errors.New("deposit not found"), errorx.NotExist)
	}
	if err != nil {
		return errorx.Wrap(err, errorx.Service)
	}

	if callback.Body.StkCallback.ResultCode != 0 {
		log.Printf("deposit %s failed: %s", checkoutRequestID, callback.Body.StkCallback.ResultDesc)
		_, err := datastore.UpdateDepositStatus(ctx, service.postgresDB, checkoutRequestID, models.DEPOSIT_PENDING, models.DEPOSIT_FAILED)
		if err != nil {
			return errorx.Wrap(err, errorx.Service)
		}
		return nil
	}

	_, err = service.serviceSettlement.SettleDeposit(ctx, deposit.UserID, checkoutRequestID)
	return err
}

func (service *ServicePayment) GetDepositStatus(ctx context.Context, userID int64, checkoutRequestID string) (*models.Deposit, error) {
	deposit, err := datastore.GetDepositByCheckoutID(ctx, service.postgresDB, checkoutRequestID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errorx.Wrap(errors.New("deposit not found"), errorx.NotExist)
	}
	if err != nil {
		return nil, errorx.Wrap(err, errorx.Service)
	}
	if deposit.UserID != userID {
		return nil, errorx.Wrap(errors.New("deposit not found"), errorx.NotExist)
	}

	return deposit, nil
}
