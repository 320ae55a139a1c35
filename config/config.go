package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/layer-3/ualauth/core"
)

// EnvConfigPath names the variable read when no path is given
const EnvConfigPath = "UALAUTH_CONFIG"

type Config struct {
	Mode          Mode                `toml:"-"`
	Service       ServiceConfig       `toml:"service"`
	Authenticator AuthenticatorConfig `toml:"authenticator"`
	Chains        []core.Chain        `toml:"chains"`
	Signer        SignerConfig        `toml:"signer"`
	Redis         RedisConfig         `toml:"redis"`
	Events        EventsConfig        `toml:"events"`
}

type ServiceConfig struct {
	Mode   string `toml:"mode"`
	Listen string `toml:"listen"`
}

type AuthenticatorConfig struct {
	Profile                 string `toml:"profile"`
	AppName                 string `toml:"app_name"`
	Protocol                string `toml:"protocol"`
	DeclaredDomain          string `toml:"declared_domain"`
	ReturnURL               string `toml:"return_url"`
	BridgeURL               string `toml:"bridge_url"`
	AddAssertToTransactions bool   `toml:"add_assert_to_transactions"`
}

type SignerConfig struct {
	RequestTimeout time.Duration `toml:"request_timeout"`
	KeyTTL         time.Duration `toml:"key_ttl"`
	// EnvelopeKeyFile is a PEM P-256 key signing bridge envelopes; a fresh
	// key is generated when empty.
	EnvelopeKeyFile string `toml:"envelope_key_file"`
	// LocalKeys switches to an in-process signer holding these secp256k1 keys.
	LocalKeys []string `toml:"local_keys"`
}

type RedisConfig struct {
	URL string `toml:"url"`
}

type EventsConfig struct {
	Enabled bool `toml:"enabled"`
}

// Load decodes the TOML file at path, or at $UALAUTH_CONFIG when path is
// empty, and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return nil, fmt.Errorf("no config file given and %s is not set", EnvConfigPath)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate resolves the mode and applies defaults
func (c *Config) Validate() error {
	var mode Mode
	switch c.Service.Mode {
	case "", "local":
		mode = LocalMode
	case "dev", "development":
		mode = DevelopmentMode
	case "prod", "production":
		mode = ProductionMode
	default:
		return fmt.Errorf("config service.mode value is invalid, must be one of \"local\", \"development\", \"dev\", \"production\" or \"prod\"")
	}
	c.Mode = mode
	c.Service.Mode = mode.String()

	if c.Service.Listen == "" {
		c.Service.Listen = ":9000"
	}

	if _, ok := core.ProfileByName(c.Authenticator.Profile); !ok {
		return fmt.Errorf("config authenticator.profile %q is unknown", c.Authenticator.Profile)
	}
	if c.Authenticator.BridgeURL == "" && len(c.Signer.LocalKeys) == 0 {
		return errors.New("config authenticator.bridge_url is required unless signer.local_keys is set")
	}

	if len(c.Chains) == 0 {
		return errors.New("config must list at least one chain")
	}
	for i, chain := range c.Chains {
		if chain.ChainID == "" {
			return fmt.Errorf("config chains[%d] has no chain_id", i)
		}
		if len(chain.RPCEndpoints) == 0 {
			return fmt.Errorf("config chain %s: %w", chain.ChainID, core.ErrNoRPCEndpoint)
		}
	}

	if c.Signer.RequestTimeout == 0 {
		c.Signer.RequestTimeout = 2 * time.Minute
	}
	if c.Signer.KeyTTL == 0 {
		c.Signer.KeyTTL = 10 * time.Minute
	}
	return nil
}

// Profile returns the adapter profile named by authenticator.profile
func (c *Config) Profile() core.AdapterProfile {
	profile, _ := core.ProfileByName(c.Authenticator.Profile)
	return profile
}

// Options builds the options handed to sessions and signers
func (c *Config) Options() *core.Options {
	return &core.Options{
		AppName:  c.Authenticator.AppName,
		Protocol: c.Authenticator.Protocol,
		SecurityExclusions: &core.SecurityExclusions{
			AddAssertToTransactions: c.Authenticator.AddAssertToTransactions,
		},
	}
}

type Mode uint32

const (
	LocalMode Mode = iota
	DevelopmentMode
	ProductionMode
)

func (m Mode) String() string {
	switch m {
	case LocalMode:
		return "local"
	case DevelopmentMode:
		return "development"
	case ProductionMode:
		return "production"
	default:
		return ""
	}
}
