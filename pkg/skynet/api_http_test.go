package skynet_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/skynet/pkg/skynet"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newHTTPClient(t *testing.T, handler http.HandlerFunc) *skynet.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return skynet.New(skynet.Config{
		Credentials: testCredentials,
		BaseURL:     srv.URL + "/api/",
		Timeout:     2 * time.Second,
	}, otelzap.New(zap.NewNop()), nil)
}

func TestRestyTransport_SecurityToken(t *testing.T) {
	client := newHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/Security/GetSecurityToken", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "iDeliverTest", body["Username"])
		assert.Equal(t, "J99133", body["AccountNumber"])

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		io.WriteString(w, `{"SecurityToken":"2_03ce"}`)
	})

	resp, err := client.SecurityToken(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.Successful())
	assert.Equal(t, "application/json; charset=utf-8", resp.Header("Content-Type"))

	decoded, err := resp.JSON()
	require.NoError(t, err)
	assert.Equal(t, "2_03ce", decoded.(map[string]any)["SecurityToken"])
}

func TestRestyTransport_TrackWaybill(t *testing.T) {
	const body = `[{"WaybillNumber":"080900028413"}]`
	requests := 0

	client := newHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/waybill/GetWaybillTracking", r.URL.Path)
		assert.Equal(t, "080900028413", r.URL.Query().Get("WaybillReference"))
		io.WriteString(w, body)
	})

	resp, err := client.TrackWaybill(context.Background(), "080900028413")
	require.NoError(t, err)
	assert.Equal(t, body, resp.Body())
	assert.Equal(t, 1, requests)
}

func TestRestyTransport_NonSuccessIsNotAnError(t *testing.T) {
	client := newHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"Message":"The request is invalid."}`)
	})

	resp, err := client.ValidateSuburbAndPostalCode(context.Background(), skynet.Params{
		"suburb":      "Nowhere",
		"postal-code": "0000",
	})
	require.NoError(t, err)
	assert.True(t, resp.ClientError())
	assert.Equal(t, `{"Message":"The request is invalid."}`, resp.Body())
}

func TestRestyTransport_AuthenticatedCall(t *testing.T) {
	var paths []string

	client := newHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/api/Security/GetSecurityToken":
			io.WriteString(w, `{"SecurityToken":"2_03ce"}`)
		case "/api/Validation/GetPostalCode":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "2_03ce", body["SecurityToken"])
			assert.Equal(t, "Brackenfell", body["suburbName"])
			io.WriteString(w, `[{"postalCodeId":2766,"postalCode":"7560"}]`)
		default:
			http.NotFound(w, r)
		}
	})

	resp, err := client.PostalCodesFromSuburb(context.Background(), "Brackenfell")
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, []string{"/api/Security/GetSecurityToken", "/api/Validation/GetPostalCode"}, paths)
}

func TestRestyTransport_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := skynet.New(skynet.Config{
		Credentials: testCredentials,
		BaseURL:     url + "/api/",
		Timeout:     time.Second,
	}, otelzap.New(zap.NewNop()), nil)

	_, err := client.SecurityToken(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, skynet.ErrTransport)

	var transportErr *skynet.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.MethodPost, transportErr.Method)
	assert.Equal(t, skynet.PathSecurityToken, transportErr.Path)
}

func TestRestyTransport_WithClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "custom", r.Header.Get("X-Tenant"))
		io.WriteString(w, `true`)
	}))
	defer srv.Close()

	rc := resty.New().SetBaseURL(srv.URL).SetHeader("X-Tenant", "custom")
	transport := skynet.NewRestyTransportWithClient(rc)

	raw, err := transport.Post(context.Background(), skynet.PathValidateSuburb, map[string]any{"suburb": "x"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, raw.StatusCode())
	assert.Equal(t, "true", string(raw.Body()))
}
