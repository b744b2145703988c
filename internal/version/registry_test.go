package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocpinode/internal/core"
)

func TestRegistryVersions(t *testing.T) {
	r := NewRegistry("https://cpo.example/ocpi",
		[]core.VersionNumber{core.V2_1_1, core.V2_3_0},
		[]core.Role{core.RoleCPO},
		[]core.ModuleID{core.ModuleLocations, core.ModuleCommands})

	versions := r.Versions()
	require.Len(t, versions, 2)
	assert.Equal(t, core.V2_1_1, versions[0].Version)
	assert.Equal(t, "https://cpo.example/ocpi/2.1.1/details", versions[0].URL)
	assert.Equal(t, "https://cpo.example/ocpi/2.3.0/details", versions[1].URL)
}

func TestRegistryDetails(t *testing.T) {
	r := NewRegistry("https://cpo.example/ocpi",
		[]core.VersionNumber{core.V2_3_0},
		[]core.Role{core.RoleCPO, core.RoleEMSP},
		[]core.ModuleID{core.ModuleLocations, core.ModuleCommands, core.ModulePayments})

	detail, ok := r.Details(core.V2_3_0)
	require.True(t, ok)
	assert.Equal(t, core.V2_3_0, detail.Version)

	// payments is a PTP module; neither enabled role serves it
	require.Len(t, detail.Endpoints, 4)

	byURL := map[string]Endpoint{}
	for _, ep := range detail.Endpoints {
		byURL[ep.URL] = ep
	}
	ep, ok := byURL["https://cpo.example/ocpi/cpo/2.3.0/locations"]
	require.True(t, ok)
	assert.Equal(t, core.ModuleLocations, ep.Identifier)
	assert.Equal(t, core.InterfaceSender, ep.Role)

	ep, ok = byURL["https://cpo.example/ocpi/emsp/2.3.0/commands"]
	require.True(t, ok)
	assert.Equal(t, core.InterfaceSender, ep.Role)

	ep, ok = byURL["https://cpo.example/ocpi/cpo/2.3.0/commands"]
	require.True(t, ok)
	assert.Equal(t, core.InterfaceReceiver, ep.Role)

	_, ok = r.Details(core.V2_1_1)
	assert.False(t, ok)
}

// Endpoints advertised for 2.1.x carry no interface role.
func TestRegistryPre22HasNoInterfaceRole(t *testing.T) {
	r := NewRegistry("https://cpo.example/ocpi",
		[]core.VersionNumber{core.V2_1_1},
		[]core.Role{core.RoleCPO},
		[]core.ModuleID{core.ModuleLocations})

	detail, ok := r.Details(core.V2_1_1)
	require.True(t, ok)
	require.Len(t, detail.Endpoints, 1)
	assert.Empty(t, detail.Endpoints[0].Role)
}

// Modules added to the protocol after 2.1.1 are never advertised on versions
// that predate them.
func TestRegistryVersionGatedModules(t *testing.T) {
	r := NewRegistry("https://cpo.example/ocpi",
		[]core.VersionNumber{core.V2_1_1, core.V2_2_1, core.V2_3_0},
		[]core.Role{core.RoleCPO, core.RolePTP},
		[]core.ModuleID{core.ModuleLocations, core.ModuleChargingProfiles, core.ModulePayments})

	ids := func(v core.VersionNumber) map[core.ModuleID]bool {
		detail, ok := r.Details(v)
		require.True(t, ok)
		out := map[core.ModuleID]bool{}
		for _, ep := range detail.Endpoints {
			out[ep.Identifier] = true
		}
		return out
	}

	// 2.1.1 predates both charging profiles and payments
	assert.Equal(t, map[core.ModuleID]bool{core.ModuleLocations: true}, ids(core.V2_1_1))

	// charging profiles enter at 2.2, payments at 2.3.0
	m := ids(core.V2_2_1)
	assert.True(t, m[core.ModuleChargingProfiles])
	assert.False(t, m[core.ModulePayments])
	assert.True(t, ids(core.V2_3_0)[core.ModulePayments])
}
