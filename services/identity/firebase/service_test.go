package firebaseid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edupro/schoolportal/core"
	"github.com/edupro/schoolportal/core/identity"
)

const testServiceKey = "test-service-key"

func newTestGateway(t *testing.T, handler http.HandlerFunc) identity.Gateway {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	conf := &core.Config{AppName: "Edu Pro"}
	conf.Identity.BaseURL = srv.URL
	conf.Identity.ServiceKey = testServiceKey
	conf.Identity.Timeout = 5 * time.Second
	return NewService(conf)
}

func Test_service_FindUserByEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("known user", func(t *testing.T) {
		var gotPath, gotAuthz string
		var gotBody map[string][]string

		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuthz = r.Header.Get("Authorization")
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"users": []map[string]interface{}{{
					"localId":     "uid-42",
					"email":       "admin@acme.test",
					"displayName": "Acme High",
				}},
			})
		})

		usr, err := gw.FindUserByEmail(ctx, "admin@acme.test")
		require.NoError(t, err)
		assert.Equal(t, identity.User{UID: "uid-42", Email: "admin@acme.test", DisplayName: "Acme High"}, usr)
		assert.Equal(t, "/v1/accounts:lookup", gotPath)
		assert.Equal(t, []string{"admin@acme.test"}, gotBody["email"])

		// the bearer token must verify against the shared service key
		require.True(t, strings.HasPrefix(gotAuthz, "Bearer "))
		claims := &jwt.StandardClaims{}
		_, err = jwt.ParseWithClaims(strings.TrimPrefix(gotAuthz, "Bearer "), claims, func(*jwt.Token) (interface{}, error) {
			return []byte(testServiceKey), nil
		})
		require.NoError(t, err)
		assert.Equal(t, "Edu Pro", claims.Issuer)
	})

	t.Run("empty result set", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"users": []interface{}{}})
		})

		_, err := gw.FindUserByEmail(ctx, "nobody@acme.test")
		assert.Equal(t, identity.ErrUserNotFound, err)
	})

	t.Run("not found status", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := gw.FindUserByEmail(ctx, "nobody@acme.test")
		assert.Equal(t, identity.ErrUserNotFound, err)
	})

	t.Run("server failure", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]string{"message": "backend unavailable"},
			})
		})

		_, err := gw.FindUserByEmail(ctx, "admin@acme.test")
		assert.Equal(t, identity.ErrGatewayUnavailable, errors.Cause(err))
		assert.Contains(t, err.Error(), "backend unavailable")
	})

	t.Run("unreachable service", func(t *testing.T) {
		conf := &core.Config{AppName: "Edu Pro"}
		conf.Identity.BaseURL = "http://127.0.0.1:1" // nothing listens here
		conf.Identity.ServiceKey = testServiceKey
		conf.Identity.Timeout = time.Second
		gw := NewService(conf)

		_, err := gw.FindUserByEmail(ctx, "admin@acme.test")
		assert.Equal(t, identity.ErrGatewayUnavailable, errors.Cause(err))
	})
}

func Test_service_VerifyCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		var gotPath string
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"localId": "uid-42",
				"email":   "admin@acme.test",
			})
		})

		usr, err := gw.VerifyCredentials(ctx, "admin@acme.test", "s3cret!")
		require.NoError(t, err)
		assert.Equal(t, "uid-42", usr.UID)
		assert.Equal(t, "/v1/accounts:verify", gotPath)
	})

	t.Run("rejected credentials", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		})

		_, err := gw.VerifyCredentials(ctx, "admin@acme.test", "wrong")
		assert.Equal(t, identity.ErrInvalidCredentials, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := gw.VerifyCredentials(ctx, "nobody@acme.test", "s3cret!")
		assert.Equal(t, identity.ErrInvalidCredentials, err)
	})
}
