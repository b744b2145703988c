package pusher

import (
	"net/http"

	"ocpinode/internal/core"
)

// syncPolicy captures a module's wire convention for pushes: whether the
// object id (and nesting) is appended to the receiver's endpoint URL, and
// which HTTP methods carry full and partial updates.
type syncPolicy struct {
	appendsObjectID bool
	fullMethod      string
	patchMethod     string
}

var defaultPolicy = syncPolicy{
	appendsObjectID: true,
	fullMethod:      http.MethodPut,
	patchMethod:     http.MethodPatch,
}

// CDR delivery is a create, not an addressed update: POST to the module root,
// never PATCH, no object id.
var syncPolicies = map[core.ModuleID]syncPolicy{
	core.ModuleCDRs: {
		appendsObjectID: false,
		fullMethod:      http.MethodPost,
		patchMethod:     http.MethodPost,
	},
}

func policyFor(module core.ModuleID) syncPolicy {
	if p, ok := syncPolicies[module]; ok {
		return p
	}
	return defaultPolicy
}

func (p syncPolicy) method(usePatch bool) string {
	if usePatch {
		return p.patchMethod
	}
	return p.fullMethod
}

// targetURL builds the receiver-side object URL:
// {base}{country_code}/{party_id}/{object_id}[/{evse_uid}[/{connector_id}]].
// Modules whose policy omits the object id use the base URL unchanged.
func (p syncPolicy) targetURL(base, countryCode, partyID, objectID, evseUID, connectorID string) string {
	if !p.appendsObjectID {
		return base
	}
	url := base + countryCode + "/" + partyID + "/" + objectID
	if evseUID != "" {
		url += "/" + evseUID
		if connectorID != "" {
			url += "/" + connectorID
		}
	}
	return url
}
