package paypalpay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/edupro/schoolportal/core"
	"github.com/edupro/schoolportal/core/payment"
)

const approvalRel = "approval_url"

// service is a PayPal REST v1 payments client (sale intents).
type service struct {
	baseURL      string
	clientID     string
	clientSecret string
	client       *http.Client

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

var _ payment.Gateway = (*service)(nil)

func NewService(conf *core.Config) payment.Gateway {
	return &service{
		baseURL:      conf.PayPal.BaseURL,
		clientID:     conf.PayPal.ClientID,
		clientSecret: conf.PayPal.ClientSecret,
		client:       &http.Client{Timeout: conf.PayPal.Timeout},
	}
}

// wire types

type apiLink struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type apiPayment struct {
	ID           string    `json:"id"`
	State        string    `json:"state"`
	Links        []apiLink `json:"links"`
	Transactions []struct {
		Amount struct {
			Total    string `json:"total"`
			Currency string `json:"currency"`
		} `json:"amount"`
	} `json:"transactions"`
}

type apiError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (svc *service) CreateIntent(ctx context.Context, charge payment.Charge) (payment.Intent, error) {
	items := make([]map[string]interface{}, 0, len(charge.Items))
	for _, it := range charge.Items {
		items = append(items, map[string]interface{}{
			"name":     it.Name,
			"sku":      it.SKU,
			"price":    it.Price,
			"currency": it.Currency,
			"quantity": it.Quantity,
		})
	}
	body := map[string]interface{}{
		"intent": "sale",
		"payer":  map[string]string{"payment_method": "paypal"},
		"redirect_urls": map[string]string{
			"return_url": charge.ReturnURL,
			"cancel_url": charge.CancelURL,
		},
		"transactions": []map[string]interface{}{{
			"item_list": map[string]interface{}{"items": items},
			"amount": map[string]string{
				"total":    charge.Total,
				"currency": charge.Currency,
			},
			"description": charge.Description,
		}},
	}

	var res apiPayment
	if err := svc.post(ctx, "/v1/payments/payment", body, &res); err != nil {
		return payment.Intent{}, err
	}

	intent := svc.toIntent(res)
	if intent.ApprovalURL == "" {
		return payment.Intent{}, payment.NewCreationError("no approval link in provider response")
	}
	intent.Status = payment.StatusCreated
	return intent, nil
}

func (svc *service) ConfirmIntent(ctx context.Context, intentID, payerID string) (payment.Intent, error) {
	body := map[string]string{"payer_id": payerID}

	var res apiPayment
	path := "/v1/payments/payment/" + url.PathEscape(intentID) + "/execute"
	if err := svc.post(ctx, path, body, &res); err != nil {
		return payment.Intent{}, err
	}

	intent := svc.toIntent(res)
	if strings.EqualFold(res.State, "approved") {
		intent.Status = payment.StatusApproved
	} else {
		intent.Status = payment.StatusCancelled
	}
	return intent, nil
}

func (svc *service) toIntent(res apiPayment) payment.Intent {
	intent := payment.Intent{ID: res.ID}
	if len(res.Transactions) > 0 {
		intent.Total = res.Transactions[0].Amount.Total
		intent.Currency = res.Transactions[0].Amount.Currency
	}
	for _, link := range res.Links {
		if link.Rel == approvalRel {
			intent.ApprovalURL = link.Href
			break
		}
	}
	return intent
}

func (svc *service) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshalling request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "building request")
	}
	token, err := svc.accessToken(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := svc.client.Do(req)
	if err != nil {
		return payment.NewCreationError(err.Error())
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= http.StatusBadRequest {
		return payment.NewCreationError(svc.readError(res.Body))
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding response")
	}
	return nil
}

// accessToken fetches (and caches) an oauth2 client-credentials token.
func (svc *service) accessToken(ctx context.Context) (string, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.token != "" && time.Now().Before(svc.tokenExp) {
		return svc.token, nil
	}

	form := strings.NewReader("grant_type=client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.baseURL+"/v1/oauth2/token", form)
	if err != nil {
		return "", errors.Wrap(err, "building token request")
	}
	req.SetBasicAuth(svc.clientID, svc.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := svc.client.Do(req)
	if err != nil {
		return "", payment.NewCreationError(err.Error())
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode >= http.StatusBadRequest {
		return "", payment.NewCreationError("authenticating with provider: " + svc.readError(res.Body))
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(res.Body).Decode(&tok); err != nil {
		return "", errors.Wrap(err, "decoding token response")
	}

	svc.token = tok.AccessToken
	// refresh a minute early
	svc.tokenExp = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - time.Minute)
	return svc.token, nil
}

func (svc *service) readError(r io.Reader) string {
	data, err := ioutil.ReadAll(io.LimitReader(r, 1<<10))
	if err != nil || len(data) == 0 {
		return "no response body"
	}
	var apiErr apiError
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Name != "" {
		if apiErr.Message != "" {
			return apiErr.Name + ": " + apiErr.Message
		}
		return apiErr.Name
	}
	return string(data)
}
