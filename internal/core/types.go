package core

import "strings"

// ModuleID identifies an OCPI module on the wire.
type ModuleID string

const (
	ModuleBookings         ModuleID = "bookings"
	ModuleCDRs             ModuleID = "cdrs"
	ModuleChargingProfiles ModuleID = "chargingprofiles"
	ModuleCommands         ModuleID = "commands"
	ModuleCredentials      ModuleID = "credentials"
	ModuleLocations        ModuleID = "locations"
	ModulePayments         ModuleID = "payments"
	ModuleSessions         ModuleID = "sessions"
	ModuleTariffs          ModuleID = "tariffs"
	ModuleTokens           ModuleID = "tokens"
)

// Role is the party role a set of endpoints is served under.
type Role string

const (
	RoleCPO  Role = "cpo"
	RoleEMSP Role = "emsp"
	RolePTP  Role = "ptp"
)

// InterfaceRole tags an endpoint as the sending or receiving side of a module.
// Endpoints advertised for 2.1.x carry no interface role.
type InterfaceRole string

const (
	InterfaceSender   InterfaceRole = "SENDER"
	InterfaceReceiver InterfaceRole = "RECEIVER"
)

// VersionNumber is a supported OCPI protocol version.
type VersionNumber string

const (
	V2_1_1 VersionNumber = "2.1.1"
	V2_2_1 VersionNumber = "2.2.1"
	V2_3_0 VersionNumber = "2.3.0"

	VersionLatest = V2_3_0
)

// ParseVersion maps a path segment to a known version.
func ParseVersion(s string) (VersionNumber, bool) {
	switch VersionNumber(s) {
	case V2_1_1, V2_2_1, V2_3_0:
		return VersionNumber(s), true
	}
	return "", false
}

// RequiresBase64 reports whether the Authorization token must be
// Base64-encoded for this version. 2.2 and later require it.
func (v VersionNumber) RequiresBase64() bool {
	s := string(v)
	return !strings.HasPrefix(s, "2.0") && !strings.HasPrefix(s, "2.1")
}

// AtLeast reports whether v is o or newer. String ordering matches release
// ordering within the 2.x family.
func (v VersionNumber) AtLeast(o VersionNumber) bool {
	return string(v) >= string(o)
}

// Action names a side effect performed through the storage backend.
type Action string

const (
	ActionSendCommand    Action = "send_command"
	ActionGetClientToken Action = "get_client_token"
)
