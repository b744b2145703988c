package command

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocpinode/internal/auth"
	"ocpinode/internal/client"
	"ocpinode/internal/core"
)

type fakeCrud struct {
	mu            sync.Mutex
	locations     map[string]json.RawMessage
	dispatchResp  json.RawMessage
	pollResults   []json.RawMessage // one per poll attempt; nil entries mean "not yet"
	pollCalls     int
	clientToken   string
	dispatchCalls int
}

func (f *fakeCrud) Get(_ context.Context, module core.ModuleID, _ core.Role, id string, p core.Params) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if module == core.ModuleLocations {
		return f.locations[id], nil
	}
	if module == core.ModuleCommands {
		var r json.RawMessage
		if f.pollCalls < len(f.pollResults) {
			r = f.pollResults[f.pollCalls]
		}
		f.pollCalls++
		return r, nil
	}
	return nil, nil
}

func (f *fakeCrud) List(context.Context, core.ModuleID, core.Role, core.ListFilters, core.Params) ([]json.RawMessage, int, error) {
	return nil, 0, nil
}

func (f *fakeCrud) Create(context.Context, core.ModuleID, core.Role, json.RawMessage, core.Params) (json.RawMessage, error) {
	return nil, nil
}

func (f *fakeCrud) Update(context.Context, core.ModuleID, core.Role, json.RawMessage, string, core.Params) (json.RawMessage, error) {
	return nil, nil
}

func (f *fakeCrud) Delete(context.Context, core.ModuleID, core.Role, string, core.Params) error {
	return nil
}

func (f *fakeCrud) Do(_ context.Context, _ core.ModuleID, _ core.Role, action core.Action, _ json.RawMessage, _ core.Params) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch action {
	case core.ActionSendCommand:
		f.dispatchCalls++
		return f.dispatchResp, nil
	case core.ActionGetClientToken:
		return json.Marshal(f.clientToken)
	}
	return nil, nil
}

func (f *fakeCrud) polls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pollCalls
}

func newTestCoordinator(crud core.Crud, awaitTime int) *Coordinator {
	c := NewCoordinator(crud, client.New(time.Second), awaitTime)
	c.sleep = func(time.Duration) {}
	return c
}

type delivery struct {
	mu   sync.Mutex
	body Response
	auth string
	hits int
}

func resultSink(t *testing.T) (*httptest.Server, *delivery) {
	t.Helper()
	d := &delivery{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.hits++
		d.auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&d.body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, d
}

func commandBody(t *testing.T, responseURL, locationID string) json.RawMessage {
	t.Helper()
	m := map[string]any{"response_url": responseURL}
	if locationID != "" {
		m["location_id"] = locationID
	}
	b, err := json.Marshal(m)
	require.NoError(t, err)
	return b
}

func TestReceiveUnknownLocation(t *testing.T) {
	crud := &fakeCrud{locations: map[string]json.RawMessage{}}
	c := newTestCoordinator(crud, 1)

	resp, status, err := c.Receive(context.Background(), core.V2_1_1, ReserveNow, commandBody(t, "https://emsp/resp", "MISSING"), "tok")
	require.NoError(t, err)
	assert.Equal(t, Rejected, resp.Result)
	assert.Equal(t, core.StatusUnknownLocation, status)

	// the rejection path and the poll loop are mutually exclusive
	c.Wait()
	assert.Equal(t, 0, crud.polls())
	assert.Equal(t, 0, crud.dispatchCalls)
}

func TestReceiveMalformedBody(t *testing.T) {
	c := newTestCoordinator(&fakeCrud{}, 1)

	_, _, err := c.Receive(context.Background(), core.V2_1_1, StartSession, json.RawMessage(`{not json`), "tok")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, _, err = c.Receive(context.Background(), core.V2_1_1, StartSession, json.RawMessage(`{}`), "tok")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestReceiveDispatchRejected(t *testing.T) {
	crud := &fakeCrud{dispatchResp: json.RawMessage(`{"result":"REJECTED"}`)}
	c := newTestCoordinator(crud, 1)

	resp, status, err := c.Receive(context.Background(), core.V2_1_1, StopSession, commandBody(t, "https://emsp/resp", ""), "tok")
	require.NoError(t, err)
	assert.Equal(t, Rejected, resp.Result)
	assert.Equal(t, core.StatusSuccess, status)

	c.Wait()
	assert.Equal(t, 0, crud.polls(), "a rejected dispatch must not start polling")
}

func TestPollDeliversResult(t *testing.T) {
	sink, delivered := resultSink(t)

	crud := &fakeCrud{
		dispatchResp: json.RawMessage(`{"result":"ACCEPTED"}`),
		pollResults:  []json.RawMessage{nil, nil, json.RawMessage(`{"result":"ACCEPTED","message":"unlocked"}`)},
		clientToken:  "partner-token",
	}
	c := newTestCoordinator(crud, 1)

	resp, status, err := c.Receive(context.Background(), core.V2_1_1, UnlockConnector, commandBody(t, sink.URL, ""), "tok")
	require.NoError(t, err)
	assert.Equal(t, Accepted, resp.Result)
	assert.Equal(t, core.StatusSuccess, status)

	c.Wait()
	assert.Equal(t, 3, crud.polls())
	assert.Equal(t, 1, delivered.hits)
	assert.Equal(t, Accepted, delivered.body.Result)
	assert.Equal(t, "unlocked", delivered.body.Message)
	assert.Equal(t, "Token partner-token", delivered.auth)
}

// From 2.2 on the delivery token goes on the wire Base64-encoded, like every
// other outbound call.
func TestPollDeliveryEncodesToken(t *testing.T) {
	sink, delivered := resultSink(t)

	crud := &fakeCrud{
		dispatchResp: json.RawMessage(`{"result":"ACCEPTED"}`),
		pollResults:  []json.RawMessage{json.RawMessage(`{"result":"ACCEPTED"}`)},
		clientToken:  "partner-token",
	}
	c := newTestCoordinator(crud, 1)

	_, _, err := c.Receive(context.Background(), core.V2_2_1, UnlockConnector, commandBody(t, sink.URL, ""), "tok")
	require.NoError(t, err)

	c.Wait()
	assert.Equal(t, 1, delivered.hits)
	assert.Equal(t, "Token "+auth.EncodeToken("partner-token"), delivered.auth)
}

// A dispatch that never yields a result exhausts exactly 30×await_time poll
// attempts, then delivers TIMEOUT.
func TestPollBudgetExhaustedDeliversTimeout(t *testing.T) {
	sink, delivered := resultSink(t)

	crud := &fakeCrud{
		dispatchResp: json.RawMessage(`{"result":"ACCEPTED"}`),
		clientToken:  "partner-token",
	}
	c := newTestCoordinator(crud, 2)

	_, _, err := c.Receive(context.Background(), core.V2_1_1, ReserveNow, commandBody(t, sink.URL, ""), "tok")
	require.NoError(t, err)

	c.Wait()
	assert.Equal(t, 60, crud.polls())
	assert.Equal(t, 1, delivered.hits)
	assert.Equal(t, Timeout, delivered.body.Result)
}

// Delivery failure is logged and never retried.
func TestDeliveryFireAndForget(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	crud := &fakeCrud{
		dispatchResp: json.RawMessage(`{"result":"ACCEPTED"}`),
		pollResults:  []json.RawMessage{json.RawMessage(`{"result":"ACCEPTED"}`)},
		clientToken:  "partner-token",
	}
	c := newTestCoordinator(crud, 1)

	_, _, err := c.Receive(context.Background(), core.V2_1_1, StartSession, commandBody(t, deadURL, ""), "tok")
	require.NoError(t, err)
	c.Wait()
	assert.Equal(t, 1, crud.polls())
}

func TestParseType(t *testing.T) {
	_, ok := ParseType("RESERVE_NOW", core.V2_1_1)
	assert.True(t, ok)
	_, ok = ParseType("CANCEL_RESERVATION", core.V2_1_1)
	assert.False(t, ok, "CANCEL_RESERVATION exists from 2.2 on")
	_, ok = ParseType("CANCEL_RESERVATION", core.V2_2_1)
	assert.True(t, ok)
	_, ok = ParseType("REBOOT", core.V2_3_0)
	assert.False(t, ok)
}
