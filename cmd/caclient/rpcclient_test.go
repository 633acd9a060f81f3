package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/moveguard/confidential-core/config"
)

func TestNewHTTPChainClientRequiresEndpoint(t *testing.T) {
	_, err := newHTTPChainClient(config.RPCConfig{})
	require.Error(t, err)
}

func TestNewHTTPChainClientUsesFirstEndpoint(t *testing.T) {
	c, err := newHTTPChainClient(config.RPCConfig{Endpoints: []string{"http://a", "http://b"}})
	require.NoError(t, err)
	require.Equal(t, "http://a", c.endpoint)
}

func TestNewHTTPChainClientDefaultsTimeout(t *testing.T) {
	c, err := newHTTPChainClient(config.RPCConfig{Endpoints: []string{"http://a"}})
	require.NoError(t, err)
	require.Equal(t, 15*time.Second, c.client.Timeout)
}

func TestNewHTTPChainClientHonorsConfiguredTimeout(t *testing.T) {
	c, err := newHTTPChainClient(config.RPCConfig{Endpoints: []string{"http://a"}, Timeout: 2 * time.Second})
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, c.client.Timeout)
}
