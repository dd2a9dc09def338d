// Package homekit carries the platform-side pieces of the bridge: the
// accessory and service wrappers, the pairing store and the server
// assembly.
package homekit

import (
	"github.com/brutella/hap"
	hapaccessory "github.com/brutella/hap/accessory"
	"github.com/cybre/yeelight-bridge/internal/errors"
)

const (
	manufacturer    = "Yeelight"
	bridgeModel     = "yeelight-bridge"
	firmwareVersion = "1.0.0"
)

// NewServer assembles the accessory server: a bridge root with the fixed
// id 1 so pairings survive restarts and reordering, the bridged
// accessories, and the pairing PIN and listen address from
// configuration. The caller runs it with ListenAndServe.
func NewServer(store hap.Store, name, pin, addr string, accessories ...*hapaccessory.A) (*hap.Server, error) {
	bridge := hapaccessory.NewBridge(hapaccessory.Info{
		Name:         name,
		SerialNumber: DeviceSerial(name),
		Manufacturer: manufacturer,
		Model:        bridgeModel,
		Firmware:     firmwareVersion,
	})
	bridge.A.Id = 1

	server, err := hap.NewServer(store, bridge.A, accessories...)
	if err != nil {
		return nil, errors.Wrapf(err, "create hap server")
	}

	server.Pin = pin
	server.Addr = addr

	return server, nil
}
