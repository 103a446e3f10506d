package skynet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockResponse is a canned RawResponse.
type MockResponse struct {
	Status  int
	Headers http.Header
	Payload []byte
}

// NewMockResponse returns a JSON response with the given status and body.
func NewMockResponse(status int, body string) *MockResponse {
	return &MockResponse{
		Status:  status,
		Headers: http.Header{"Content-Type": []string{"application/json; charset=utf-8"}},
		Payload: []byte(body),
	}
}

func (m *MockResponse) StatusCode() int     { return m.Status }
func (m *MockResponse) Header() http.Header { return m.Headers }
func (m *MockResponse) Body() []byte        { return m.Payload }

// MockCall records one request made through a MockTransport.
type MockCall struct {
	Method string
	Path   string
	Body   any
	Query  map[string]string
}

// MockTransport is a Transport for tests and offline use.
// Without hooks it answers every Skynet endpoint with plausible data.
type MockTransport struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnPost func(ctx context.Context, path string, body any) (RawResponse, error)
	OnGet  func(ctx context.Context, path string, query map[string]string) (RawResponse, error)

	mu    sync.Mutex
	calls []MockCall
}

// NewMockTransport creates a new mock transport with default behavior.
func NewMockTransport() *MockTransport {
	return &MockTransport{}
}

// Calls returns the requests received so far, in order.
func (m *MockTransport) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Post records the call and returns the hook or default response.
func (m *MockTransport) Post(ctx context.Context, path string, body any) (RawResponse, error) {
	m.record(MockCall{Method: http.MethodPost, Path: path, Body: body})

	if err := m.simulate(ctx, http.MethodPost, path); err != nil {
		return nil, err
	}

	if m.OnPost != nil {
		return m.OnPost(ctx, path, body)
	}

	switch path {
	case PathSecurityToken:
		return NewMockResponse(http.StatusOK, fmt.Sprintf(`{"SecurityToken":"2_%s"}`, uuid.NewString())), nil
	case PathValidateSuburb:
		return &MockResponse{Status: http.StatusOK, Headers: http.Header{}, Payload: []byte("true")}, nil
	case PathPostalCodes:
		return NewMockResponse(http.StatusOK, `[{"postalCodeId":2766,"postalCode":"7560","suburb":"BRACKENFELL","town":"CAPE TOWN"}]`), nil
	case PathQuote:
		return NewMockResponse(http.StatusOK, `{"totalCost":145.52,"ErrorCode":0,"ErrorDescription":null}`), nil
	case PathDeliveryETA:
		eta := time.Now().AddDate(0, 0, 2).Format("2006-01-02")
		return NewMockResponse(http.StatusOK, fmt.Sprintf(`{"ETADate":"%s","ErrorCode":0}`, eta)), nil
	case PathCreateWaybill:
		number := fmt.Sprintf("08%010d", time.Now().UnixNano()%10000000000)
		return NewMockResponse(http.StatusOK, fmt.Sprintf(`{"WaybillNumber":"%s","ErrorCode":0,"ErrorDescription":null}`, number)), nil
	case PathWaybillPOD:
		return NewMockResponse(http.StatusOK, `{"PODImage":"iVBORw0KGgo=","ErrorCode":0}`), nil
	default:
		return NewMockResponse(http.StatusNotFound, `{"Message":"No HTTP resource was found that matches the request URI."}`), nil
	}
}

// Get records the call and returns the hook or default response.
func (m *MockTransport) Get(ctx context.Context, path string, query map[string]string) (RawResponse, error) {
	m.record(MockCall{Method: http.MethodGet, Path: path, Query: query})

	if err := m.simulate(ctx, http.MethodGet, path); err != nil {
		return nil, err
	}

	if m.OnGet != nil {
		return m.OnGet(ctx, path, query)
	}

	if path != PathTrackWaybill {
		return NewMockResponse(http.StatusNotFound, `{"Message":"No HTTP resource was found that matches the request URI."}`), nil
	}

	now := time.Now()
	return NewMockResponse(http.StatusOK, fmt.Sprintf(
		`[{"WaybillNumber":%q,"EventDate":%q,"Description":"Collected","Branch":"CPT"},`+
			`{"WaybillNumber":%q,"EventDate":%q,"Description":"In transit","Branch":"JNB"}]`,
		query[trackWaybillReferenceKey], now.Add(-48*time.Hour).Format(time.RFC3339),
		query[trackWaybillReferenceKey], now.Add(-24*time.Hour).Format(time.RFC3339),
	)), nil
}

func (m *MockTransport) record(call MockCall) {
	m.mu.Lock()
	m.calls = append(m.calls, call)
	m.mu.Unlock()
}

func (m *MockTransport) simulate(ctx context.Context, method, path string) error {
	if m.SimulateLatency > 0 {
		select {
		case <-ctx.Done():
			return &TransportError{Method: method, Path: path, Cause: ctx.Err()}
		case <-time.After(m.SimulateLatency):
		}
	}

	if m.SimulateErrors {
		return &TransportError{Method: method, Path: path, Cause: errors.New("simulated connection failure")}
	}
	return nil
}

var _ Transport = (*MockTransport)(nil)
