package core

import "fmt"

// RPCEndpoint is one ledger RPC address of a chain
type RPCEndpoint struct {
	Protocol string `json:"protocol" toml:"protocol"`
	Host     string `json:"host" toml:"host"`
	Port     int    `json:"port" toml:"port"`
}

// URL renders the endpoint as protocol://host:port
func (e RPCEndpoint) URL() string {
	return fmt.Sprintf("%s://%s:%d", e.Protocol, e.Host, e.Port)
}

// Chain describes a ledger the authenticator can log into. It is supplied by
// the caller and never mutated.
type Chain struct {
	ChainID      string        `json:"chainId" toml:"chain_id"`
	RPCEndpoints []RPCEndpoint `json:"rpcEndpoints" toml:"rpc_endpoints"`
}

// RPCURL returns the URL of the first configured endpoint.
func (c Chain) RPCURL() (string, error) {
	if len(c.RPCEndpoints) == 0 {
		return "", ErrNoRPCEndpoint
	}
	return c.RPCEndpoints[0].URL(), nil
}

// SecurityExclusions relaxes checks the signer would otherwise apply
type SecurityExclusions struct {
	AddAssertToTransactions bool `json:"addAssertToTransactions"`
}

// Options is the configuration surface accepted by an authenticator. It is
// handed to every session and signer untouched.
type Options struct {
	AppName            string              `json:"appName"`
	Protocol           string              `json:"protocol"`
	SecurityExclusions *SecurityExclusions `json:"securityExclusions,omitempty"`
}
