package version

import (
	"fmt"

	"ocpinode/internal/core"
)

// Version is one entry of the versions list: a supported protocol version and
// the URL of its details document.
type Version struct {
	Version core.VersionNumber `json:"version"`
	URL     string             `json:"url"`
}

// Endpoint advertises one module endpoint. The interface role is absent on
// the wire for 2.1.x.
type Endpoint struct {
	Identifier core.ModuleID      `json:"identifier"`
	Role       core.InterfaceRole `json:"role,omitempty"`
	URL        string             `json:"url"`
}

// VersionDetail is the details document for one version.
type VersionDetail struct {
	Version   core.VersionNumber `json:"version"`
	Endpoints []Endpoint         `json:"endpoints"`
}

// interfaceRoles maps (party role, module) to the interface role this node
// serves the module under. Modules a role has no business with are absent.
var interfaceRoles = map[core.Role]map[core.ModuleID]core.InterfaceRole{
	core.RoleCPO: {
		core.ModuleLocations:        core.InterfaceSender,
		core.ModuleSessions:         core.InterfaceSender,
		core.ModuleCDRs:             core.InterfaceSender,
		core.ModuleTariffs:          core.InterfaceSender,
		core.ModuleTokens:           core.InterfaceReceiver,
		core.ModuleCommands:         core.InterfaceReceiver,
		core.ModuleBookings:         core.InterfaceReceiver,
		core.ModuleChargingProfiles: core.InterfaceReceiver,
		core.ModuleCredentials:      core.InterfaceSender,
	},
	core.RoleEMSP: {
		core.ModuleLocations:   core.InterfaceReceiver,
		core.ModuleSessions:    core.InterfaceReceiver,
		core.ModuleCDRs:        core.InterfaceReceiver,
		core.ModuleTariffs:     core.InterfaceReceiver,
		core.ModuleTokens:      core.InterfaceSender,
		core.ModuleCommands:    core.InterfaceSender,
		core.ModuleBookings:    core.InterfaceSender,
		core.ModuleCredentials: core.InterfaceSender,
	},
	core.RolePTP: {
		core.ModulePayments:    core.InterfaceSender,
		core.ModuleCredentials: core.InterfaceSender,
	},
}

// moduleMinVersion gates modules added to the protocol after 2.1.1. A module
// is never advertised on a version that predates it.
var moduleMinVersion = map[core.ModuleID]core.VersionNumber{
	core.ModuleChargingProfiles: core.V2_2_1,
	core.ModuleBookings:         core.V2_3_0,
	core.ModulePayments:         core.V2_3_0,
}

// Registry is the discovery surface. It is computed once from the node
// configuration and never mutated afterwards.
type Registry struct {
	baseURL  string
	versions []Version
	details  map[core.VersionNumber]VersionDetail
}

// NewRegistry builds the endpoint directory for the enabled versions, roles,
// and modules. baseURL is "{protocol}://{host}/{prefix}".
func NewRegistry(baseURL string, versions []core.VersionNumber, roles []core.Role, modules []core.ModuleID) *Registry {
	r := &Registry{
		baseURL: baseURL,
		details: make(map[core.VersionNumber]VersionDetail, len(versions)),
	}
	for _, v := range versions {
		r.versions = append(r.versions, Version{
			Version: v,
			URL:     fmt.Sprintf("%s/%s/details", baseURL, v),
		})

		var endpoints []Endpoint
		for _, role := range roles {
			for _, module := range modules {
				if min, ok := moduleMinVersion[module]; ok && !v.AtLeast(min) {
					continue
				}
				iface, ok := interfaceRoles[role][module]
				if !ok {
					continue
				}
				ep := Endpoint{
					Identifier: module,
					URL:        fmt.Sprintf("%s/%s/%s/%s", baseURL, role, v, module),
				}
				// 2.1.x predates interface roles.
				if v.RequiresBase64() {
					ep.Role = iface
				}
				endpoints = append(endpoints, ep)
			}
		}
		r.details[v] = VersionDetail{Version: v, Endpoints: endpoints}
	}
	return r
}

// Versions lists the supported versions with their details URLs.
func (r *Registry) Versions() []Version {
	return r.versions
}

// Details returns the endpoint list for one version.
func (r *Registry) Details(v core.VersionNumber) (VersionDetail, bool) {
	d, ok := r.details[v]
	return d, ok
}
