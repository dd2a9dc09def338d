// Package config loads the bridge configuration from a JSON file, with
// environment overrides for the values that change between deployments.
// A .env file next to the binary is honored so local setups don't have
// to export anything.
package config

import (
	"encoding/json"
	"os"
	"regexp"

	"github.com/cybre/yeelight-bridge/internal/errors"
	"github.com/joho/godotenv"
)

const (
	defaultName    = "Yeelight Bridge"
	defaultPIN     = "00102003"
	defaultStorage = "yeelight-bridge.db"
)

// hap rejects anything that isn't exactly eight digits.
var pinPattern = regexp.MustCompile(`^[0-9]{8}$`)

// Device describes one bulb the bridge should control.
type Device struct {
	// Name is shown in the Home app and must be unique across devices.
	// Defaults to the address when empty.
	Name string `json:"name"`
	// Address is the host or host:port of the bulb on the LAN. The
	// standard control port is assumed when none is given.
	Address string `json:"address"`
	// Token is the cloud pairing token. LAN control does not use it,
	// but keeping it with the device lets configs migrated from cloud
	// setups stay in one file.
	Token string `json:"token,omitempty"`
}

// Config is the full bridge configuration.
type Config struct {
	// Name is the bridge accessory name shown during pairing.
	Name string `json:"name,omitempty"`
	// PIN is the HomeKit setup code, eight digits.
	PIN string `json:"pin,omitempty"`
	// Addr is the listen address for the accessory server. Empty picks
	// a random port.
	Addr string `json:"addr,omitempty"`
	// Storage is the path of the pairing database.
	Storage string `json:"storage,omitempty"`
	// Debug enables debug logging, including the accessory protocol's.
	Debug bool `json:"debug,omitempty"`
	// Devices lists the bulbs to bridge.
	Devices []Device `json:"devices"`
}

// Load reads the configuration at path, applies environment overrides
// and defaults, and validates the result.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config %s", path)
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	_ = godotenv.Load()

	if pin := os.Getenv("BRIDGE_PIN"); pin != "" {
		c.PIN = pin
	}
	if addr := os.Getenv("BRIDGE_ADDR"); addr != "" {
		c.Addr = addr
	}
	if os.Getenv("DEBUG") == "true" {
		c.Debug = true
	}
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = defaultName
	}
	if c.PIN == "" {
		c.PIN = defaultPIN
	}
	if c.Storage == "" {
		c.Storage = defaultStorage
	}
	for i := range c.Devices {
		if c.Devices[i].Name == "" {
			c.Devices[i].Name = c.Devices[i].Address
		}
	}
}

func (c *Config) validate() error {
	if !pinPattern.MatchString(c.PIN) {
		return errors.Errorf("pin must be exactly 8 digits, got %q", c.PIN)
	}
	if len(c.Devices) == 0 {
		return errors.New("no devices configured")
	}

	names := make(map[string]struct{}, len(c.Devices))
	addrs := make(map[string]struct{}, len(c.Devices))
	for _, d := range c.Devices {
		if d.Address == "" {
			return errors.Errorf("device %q has no address", d.Name)
		}
		if _, ok := names[d.Name]; ok {
			return errors.Errorf("duplicate device name %q", d.Name)
		}
		if _, ok := addrs[d.Address]; ok {
			return errors.Errorf("duplicate device address %q", d.Address)
		}
		names[d.Name] = struct{}{}
		addrs[d.Address] = struct{}{}
	}

	return nil
}
