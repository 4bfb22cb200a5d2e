package firebaseid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/edupro/schoolportal/core"
	"github.com/edupro/schoolportal/core/identity"
)

const serviceTokenTTL = 5 * time.Minute

// service talks to the hosted authentication admin API over REST,
// authenticated with a short-lived HS256 service token.
type service struct {
	baseURL    string
	serviceKey []byte
	issuer     string
	client     *http.Client
}

var _ identity.Gateway = (*service)(nil)

func NewService(conf *core.Config) identity.Gateway {
	return &service{
		baseURL:    conf.Identity.BaseURL,
		serviceKey: []byte(conf.Identity.ServiceKey),
		issuer:     conf.AppName,
		client:     &http.Client{Timeout: conf.Identity.Timeout},
	}
}

type apiUser struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Disabled    bool   `json:"disabled"`
}

func (u apiUser) toUser() identity.User {
	return identity.User{
		UID:         u.LocalID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Disabled:    u.Disabled,
	}
}

func (svc *service) FindUserByEmail(ctx context.Context, email string) (identity.User, error) {
	body := map[string]interface{}{"email": []string{email}}

	var res struct {
		Users []apiUser `json:"users"`
	}
	if err := svc.post(ctx, "/v1/accounts:lookup", body, &res); err != nil {
		return identity.User{}, err
	}
	if len(res.Users) == 0 {
		return identity.User{}, identity.ErrUserNotFound
	}
	return res.Users[0].toUser(), nil
}

func (svc *service) VerifyCredentials(ctx context.Context, email, password string) (identity.User, error) {
	body := map[string]interface{}{"email": email, "password": password}

	var res apiUser
	if err := svc.post(ctx, "/v1/accounts:verify", body, &res); err != nil {
		if errors.Cause(err) == identity.ErrUserNotFound {
			return identity.User{}, identity.ErrInvalidCredentials
		}
		return identity.User{}, err
	}
	return res.toUser(), nil
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
	token, err := svc.serviceToken()
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := svc.client.Do(req)
	if err != nil {
		return errors.Wrap(identity.ErrGatewayUnavailable, err.Error())
	}
	defer func() { _ = res.Body.Close() }()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return identity.ErrUserNotFound
	case res.StatusCode == http.StatusBadRequest:
		return identity.ErrInvalidCredentials
	case res.StatusCode >= http.StatusInternalServerError:
		return errors.Wrap(identity.ErrGatewayUnavailable, svc.readError(res.Body))
	case res.StatusCode >= http.StatusMultipleChoices:
		return errors.Errorf("identity service: unexpected status %d: %s", res.StatusCode, svc.readError(res.Body))
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding response")
	}
	return nil
}

// serviceToken mints the short-lived token the admin API expects.
func (svc *service) serviceToken() (string, error) {
	now := time.Now()
	claims := &jwt.StandardClaims{
		Issuer:    svc.issuer,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(serviceTokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(svc.serviceKey)
	if err != nil {
		return "", errors.Wrap(err, "signing service token")
	}
	return ss, nil
}

func (svc *service) readError(r io.Reader) string {
	data, err := ioutil.ReadAll(io.LimitReader(r, 1<<10))
	if err != nil || len(data) == 0 {
		return "no response body"
	}
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
		return apiErr.Error.Message
	}
	return fmt.Sprintf("%s", data)
}
