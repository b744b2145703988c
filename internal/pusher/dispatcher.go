package pusher

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"ocpinode/internal/auth"
	"ocpinode/internal/client"
	"ocpinode/internal/core"
	"ocpinode/internal/version"
)

// Receiver is one partner a changed object is delivered to.
type Receiver struct {
	EndpointsURL string `json:"endpoints_url"`
	AuthToken    string `json:"auth_token"`
}

// Push is one synchronization request: deliver module/object to receivers.
type Push struct {
	ModuleID  core.ModuleID `json:"module_id"`
	ObjectID  string        `json:"object_id"`
	Receivers []Receiver    `json:"receivers"`
}

// SyncResult records the outcome of one receiver's attempt. For CDRs the
// response holds the receiver's headers; OCPI defines no response body for
// a CDR POST. A transport failure is recorded with status code 0.
type SyncResult struct {
	EndpointsURL string          `json:"endpoints_url"`
	StatusCode   int             `json:"status_code"`
	Response     json.RawMessage `json:"response"`
}

// PushResponse aggregates the per-receiver results of one Push call.
type PushResponse struct {
	ReceiverResponses []SyncResult `json:"receiver_responses"`
}

// Options tune one Push call. UsePatch switches to partial-update mode, in
// which PartialData is sent as-is with no adapter pass. EVSEUID/ConnectorID
// address nested location updates.
type Options struct {
	UsePatch    bool
	PartialData json.RawMessage
	EVSEUID     string
	ConnectorID string
	AuthToken   string
}

// Dispatcher is the outbound push engine.
type Dispatcher struct {
	Client      *client.Client
	Crud        core.Crud
	Adapter     core.Adapter
	CountryCode string
	PartyID     string
}

func NewDispatcher(c *client.Client, crud core.Crud, adapter core.Adapter, countryCode, partyID string) *Dispatcher {
	if adapter == nil {
		adapter = core.PassthroughAdapter{}
	}
	return &Dispatcher{Client: c, Crud: crud, Adapter: adapter, CountryCode: countryCode, PartyID: partyID}
}

// Push delivers the object to every receiver independently. One receiver's
// failure is recorded in its SyncResult and never aborts the rest; the caller
// always gets exactly one result per receiver.
func (d *Dispatcher) Push(ctx context.Context, v core.VersionNumber, push Push, opts Options) PushResponse {
	out := PushResponse{ReceiverResponses: make([]SyncResult, 0, len(push.Receivers))}
	for _, receiver := range push.Receivers {
		result, err := d.pushOne(ctx, v, push, receiver, opts)
		if err != nil {
			log.Printf("push %s/%s to %s failed: %v", push.ModuleID, push.ObjectID, receiver.EndpointsURL, err)
			msg, _ := json.Marshal(map[string]string{"error": err.Error()})
			result = SyncResult{EndpointsURL: receiver.EndpointsURL, Response: msg}
		}
		out.ReceiverResponses = append(out.ReceiverResponses, result)
	}
	return out
}

func (d *Dispatcher) pushOne(ctx context.Context, v core.VersionNumber, push Push, receiver Receiver, opts Options) (SyncResult, error) {
	authHeader := auth.HeaderValue(receiver.AuthToken, v)

	endpoints, err := d.Client.Endpoints(ctx, receiver.EndpointsURL, authHeader, v)
	if err != nil {
		return SyncResult{}, err
	}
	base, err := receiverBaseURL(endpoints, push.ModuleID, v)
	if err != nil {
		return SyncResult{}, err
	}

	data, err := d.objectData(ctx, v, push, opts)
	if err != nil {
		return SyncResult{}, err
	}

	policy := policyFor(push.ModuleID)
	url := policy.targetURL(base, d.CountryCode, d.PartyID, push.ObjectID, opts.EVSEUID, opts.ConnectorID)
	res, err := d.Client.SendJSON(ctx, policy.method(opts.UsePatch), url, authHeader, data)
	if err != nil {
		return SyncResult{}, err
	}

	result := SyncResult{EndpointsURL: receiver.EndpointsURL, StatusCode: res.StatusCode}
	if push.ModuleID == core.ModuleCDRs {
		headers, err := json.Marshal(res.Header)
		if err != nil {
			return SyncResult{}, err
		}
		result.Response = headers
	} else {
		result.Response = res.Body
	}
	return result, nil
}

// objectData resolves the request body: the caller-shaped partial payload for
// PATCH, or the stored object run through the version adapter for a full
// update. Token objects live on the EMSP side of this node; everything else
// is CPO-owned.
func (d *Dispatcher) objectData(ctx context.Context, v core.VersionNumber, push Push, opts Options) (json.RawMessage, error) {
	if opts.UsePatch {
		if opts.PartialData == nil {
			return nil, fmt.Errorf("partial data required for patch push")
		}
		return opts.PartialData, nil
	}

	role := core.RoleCPO
	if push.ModuleID == core.ModuleTokens {
		role = core.RoleEMSP
	}
	data, err := d.Crud.Get(ctx, push.ModuleID, role, push.ObjectID, core.Params{AuthToken: opts.AuthToken, Version: v})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s %s", core.ErrNotFound, push.ModuleID, push.ObjectID)
	}
	return d.Adapter.Adapt(push.ModuleID, data, v)
}

// receiverBaseURL finds the RECEIVER endpoint for the module. 2.1.x
// endpoints carry no interface role, so any module match counts there.
func receiverBaseURL(endpoints []version.Endpoint, module core.ModuleID, v core.VersionNumber) (string, error) {
	for _, ep := range endpoints {
		if ep.Identifier != module {
			continue
		}
		if !v.RequiresBase64() || ep.Role == core.InterfaceReceiver {
			return ep.URL, nil
		}
	}
	return "", fmt.Errorf("%w: module %s", core.ErrEndpointNotFound, module)
}
