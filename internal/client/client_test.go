package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocpinode/internal/core"
	"ocpinode/internal/version"
)

func TestDecodeDiscovery(t *testing.T) {
	disc, err := DecodeDiscovery(json.RawMessage(`[{"version":"2.2.1","url":"https://x/2.2.1/details"}]`))
	require.NoError(t, err)
	require.Nil(t, disc.Detail)
	require.Len(t, disc.Versions, 1)
	assert.Equal(t, core.V2_2_1, disc.Versions[0].Version)

	disc, err = DecodeDiscovery(json.RawMessage(`{"version":"2.2.1","endpoints":[{"identifier":"locations","role":"RECEIVER","url":"https://x/loc"}]}`))
	require.NoError(t, err)
	require.NotNil(t, disc.Detail)
	assert.Len(t, disc.Detail.Endpoints, 1)

	_, err = DecodeDiscovery(json.RawMessage(``))
	assert.Error(t, err)
}

func envelope(data any) []byte {
	b, _ := json.Marshal(map[string]any{"data": data, "status_code": 1000, "timestamp": "2024-01-01T00:00:00Z"})
	return b
}

func TestEndpointsVersionsListShape(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/versions", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("Authorization"))
		_, _ = w.Write(envelope([]version.Version{
			{Version: core.V2_1_1, URL: srv.URL + "/2.1.1/details"},
			{Version: core.V2_2_1, URL: srv.URL + "/2.2.1/details"},
		}))
	})
	mux.HandleFunc("/2.2.1/details", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(envelope(version.VersionDetail{
			Version: core.V2_2_1,
			Endpoints: []version.Endpoint{
				{Identifier: core.ModuleLocations, Role: core.InterfaceReceiver, URL: srv.URL + "/loc/"},
			},
		}))
	})

	c := New(time.Second)
	endpoints, err := c.Endpoints(context.Background(), srv.URL+"/versions", "Token x", core.V2_2_1)
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	assert.Equal(t, core.ModuleLocations, endpoints[0].Identifier)
}

// A non-conformant partner answering the versions URL with a bare
// VersionDetail is tolerated.
func TestEndpointsBareDetailShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(envelope(version.VersionDetail{
			Version: core.V2_2_1,
			Endpoints: []version.Endpoint{
				{Identifier: core.ModuleCDRs, Role: core.InterfaceReceiver, URL: "https://x/cdrs/"},
			},
		}))
	}))
	defer srv.Close()

	c := New(time.Second)
	endpoints, err := c.Endpoints(context.Background(), srv.URL, "Token x", core.V2_2_1)
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	assert.Equal(t, core.ModuleCDRs, endpoints[0].Identifier)
}

func TestEndpointsVersionNotOffered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(envelope([]version.Version{{Version: core.V2_1_1, URL: "https://x/2.1.1/details"}}))
	}))
	defer srv.Close()

	c := New(time.Second)
	_, err := c.Endpoints(context.Background(), srv.URL, "Token x", core.V2_3_0)
	assert.Error(t, err)
}

func TestEndpointsNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(time.Second)
	_, err := c.Endpoints(context.Background(), srv.URL, "Token x", core.V2_2_1)
	assert.Error(t, err)
}
