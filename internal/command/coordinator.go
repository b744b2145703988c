package command

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"ocpinode/internal/auth"
	"ocpinode/internal/client"
	"ocpinode/internal/core"
)

// Type is an OCPI command type.
type Type string

const (
	ReserveNow        Type = "RESERVE_NOW"
	StartSession      Type = "START_SESSION"
	StopSession       Type = "STOP_SESSION"
	UnlockConnector   Type = "UNLOCK_CONNECTOR"
	CancelReservation Type = "CANCEL_RESERVATION"
)

// ParseType maps a path segment to a known command type.
// CANCEL_RESERVATION exists from 2.2 on.
func ParseType(s string, v core.VersionNumber) (Type, bool) {
	switch Type(s) {
	case ReserveNow, StartSession, StopSession, UnlockConnector:
		return Type(s), true
	case CancelReservation:
		if v.RequiresBase64() {
			return CancelReservation, true
		}
	}
	return "", false
}

// Result is the outcome of a command.
type Result string

const (
	Accepted Result = "ACCEPTED"
	Rejected Result = "REJECTED"
	Timeout  Result = "TIMEOUT"
)

// Response is the CommandResponse/CommandResult object on the wire.
type Response struct {
	Result  Result `json:"result"`
	Message string `json:"message,omitempty"`
}

// payload is the subset of every command body the coordinator acts on.
type payload struct {
	ResponseURL string `json:"response_url"`
	LocationID  string `json:"location_id"`
}

// Coordinator runs the asynchronous command protocol: dispatch through the
// storage backend, poll for the out-of-band result within a bounded budget,
// then deliver exactly one CommandResult to the command's response_url.
type Coordinator struct {
	Crud   core.Crud
	Client *client.Client

	// AwaitTime is the deployment's poll budget multiplier: the loop makes
	// 30×AwaitTime attempts, PollInterval apart.
	AwaitTime    int
	PollInterval time.Duration

	sleep func(time.Duration)
	wg    sync.WaitGroup
}

func NewCoordinator(crud core.Crud, c *client.Client, awaitTime int) *Coordinator {
	if awaitTime <= 0 {
		awaitTime = 1
	}
	return &Coordinator{
		Crud:         crud,
		Client:       c,
		AwaitTime:    awaitTime,
		PollInterval: 2 * time.Second,
		sleep:        time.Sleep,
	}
}

// Receive handles an inbound command. The returned response goes straight
// back to the sender with the given OCPI status; when the dispatch was
// accepted, polling and delivery continue in the background after Receive
// returns. A non-nil error means the body was malformed.
func (c *Coordinator) Receive(ctx context.Context, v core.VersionNumber, cmdType Type, body json.RawMessage, authToken string) (Response, int, error) {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return Response{}, 0, fmt.Errorf("%w: %v", core.ErrValidation, err)
	}
	if p.ResponseURL == "" {
		return Response{}, 0, fmt.Errorf("%w: response_url is required", core.ErrValidation)
	}

	params := core.Params{AuthToken: authToken, Version: v}

	// A command addressing an unknown location is rejected outright; the
	// poll loop never starts.
	if p.LocationID != "" {
		location, err := c.Crud.Get(ctx, core.ModuleLocations, core.RoleCPO, p.LocationID, params)
		if err != nil {
			return Response{Result: Rejected}, core.StatusServerError, nil
		}
		if location == nil {
			log.Printf("command %s: location %s not found", cmdType, p.LocationID)
			return Response{Result: Rejected}, core.StatusUnknownLocation, nil
		}
	}

	dispatched, err := c.Crud.Do(ctx, core.ModuleCommands, core.RoleCPO, core.ActionSendCommand, body, core.Params{
		AuthToken: authToken,
		Version:   v,
		Command:   string(cmdType),
	})
	if err != nil || len(dispatched) == 0 {
		if err != nil {
			log.Printf("command %s: dispatch failed: %v", cmdType, err)
		}
		return Response{Result: Rejected}, core.StatusServerError, nil
	}

	var resp Response
	if err := json.Unmarshal(dispatched, &resp); err != nil {
		return Response{Result: Rejected}, core.StatusServerError, nil
	}

	if resp.Result == Accepted {
		c.wg.Add(1)
		go c.pollAndDeliver(v, cmdType, body, p.ResponseURL, authToken)
	}
	return resp, core.StatusSuccess, nil
}

// pollAndDeliver is detached background work: it outlives the HTTP response
// to the command sender and always runs to a terminal outcome. There is
// deliberately no way to cancel it from the outside.
func (c *Coordinator) pollAndDeliver(v core.VersionNumber, cmdType Type, body json.RawMessage, responseURL, authToken string) {
	defer c.wg.Done()
	ctx := context.Background()
	params := core.Params{
		AuthToken:   authToken,
		Version:     v,
		Command:     string(cmdType),
		CommandData: body,
	}

	// Commands have no natural id; the backend keys pending results off the
	// command data and a sentinel id of 0.
	var result json.RawMessage
	for i := 0; i < 30*c.AwaitTime; i++ {
		r, err := c.Crud.Get(ctx, core.ModuleCommands, core.RoleCPO, "0", params)
		if err == nil && len(r) > 0 {
			result = r
			break
		}
		c.sleep(c.PollInterval)
	}

	response := Response{Result: Timeout}
	if result != nil {
		if err := json.Unmarshal(result, &response); err != nil {
			log.Printf("command %s: malformed result from asset: %v", cmdType, err)
			response = Response{Result: Timeout}
		}
	} else {
		log.Printf("command %s: no result within budget, delivering TIMEOUT", cmdType)
	}

	c.deliver(ctx, v, responseURL, response, params)
}

// deliver POSTs the terminal result to the command's response_url. Delivery
// is fire and forget: a failure is logged, never retried.
func (c *Coordinator) deliver(ctx context.Context, v core.VersionNumber, responseURL string, response Response, params core.Params) {
	tokenRaw, err := c.Crud.Do(ctx, core.ModuleCommands, core.RoleCPO, core.ActionGetClientToken, nil, params)
	if err != nil {
		log.Printf("command result delivery: no client token: %v", err)
		return
	}
	var clientToken string
	if err := json.Unmarshal(tokenRaw, &clientToken); err != nil {
		clientToken = string(tokenRaw)
	}

	res, err := c.Client.SendJSON(ctx, http.MethodPost, responseURL, auth.HeaderValue(clientToken, v), response)
	if err != nil {
		log.Printf("command result delivery to %s failed: %v", responseURL, err)
		return
	}
	log.Printf("command result delivered to %s: status %d", responseURL, res.StatusCode)
}

// Wait blocks until all in-flight poll loops have delivered. Used on
// shutdown and in tests.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}
