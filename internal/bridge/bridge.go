// Package bridge turns configured Yeelight bulbs into HomeKit
// accessories: one adapter per bulb binds platform characteristics to
// device commands and pushes device-side changes back into the platform.
package bridge

import (
	"context"
	"log/slog"

	"github.com/brutella/hap"
	hapaccessory "github.com/brutella/hap/accessory"
	"github.com/cybre/yeelight-bridge/internal/config"
	"github.com/cybre/yeelight-bridge/internal/errors"
	"github.com/cybre/yeelight-bridge/internal/homekit"
	"github.com/cybre/yeelight-bridge/internal/yeelight"
	"golang.org/x/sync/errgroup"
)

// DeviceConn is the slice of the device client the adapter talks to.
// The concrete client satisfies it; tests substitute their own.
type DeviceConn interface {
	Matches(caps ...yeelight.Capability) bool
	SetPower(ctx context.Context, on bool, mode yeelight.PowerMode) error
	SetBrightness(ctx context.Context, level int) error
	SetColor(ctx context.Context, value string) error
	Call(ctx context.Context, method string, params ...interface{}) ([]string, error)
	LoadProperties(ctx context.Context, names ...string) (yeelight.Properties, error)
	Events() <-chan yeelight.Event
	Close() error
}

// ConnectFunc opens a connection to one configured device.
type ConnectFunc func(ctx context.Context, device config.Device) (DeviceConn, error)

// Bridge owns the accessory server and one light adapter per configured
// device.
type Bridge struct {
	cfg     config.Config
	connect ConnectFunc
	store   hap.Store
}

func New(cfg config.Config, connect ConnectFunc, store hap.Store) *Bridge {
	return &Bridge{
		cfg:     cfg,
		connect: connect,
		store:   store,
	}
}

// Run connects the configured devices, publishes the accessory tree and
// serves it until ctx is canceled. Devices that cannot be reached still
// get an accessory so pairings stay intact; their handlers report
// communication failure. The accessory tree is fixed once the server
// starts, which is why every connection attempt completes first.
func (b *Bridge) Run(ctx context.Context) error {
	conns := make([]DeviceConn, len(b.cfg.Devices))

	var connects errgroup.Group
	for i, device := range b.cfg.Devices {
		i, device := i, device
		connects.Go(func() error {
			conn, err := b.connect(ctx, device)
			if err != nil {
				slog.Error("device unreachable, registering accessory anyway",
					slog.String("device", device.Name), slog.Any("error", err))
				return nil
			}

			conns[i] = conn
			return nil
		})
	}
	if err := connects.Wait(); err != nil {
		return errors.Wrap(err)
	}

	lights := make([]*Light, len(b.cfg.Devices))
	var accessories []*hapaccessory.A
	for i, device := range b.cfg.Devices {
		lights[i] = NewLight(ctx, device, conns[i])
		accessories = append(accessories, lights[i].Accessories()...)
	}

	server, err := homekit.NewServer(b.store, b.cfg.Name, b.cfg.PIN, b.cfg.Addr, accessories...)
	if err != nil {
		return errors.Wrapf(err, "assemble accessory server")
	}

	group, runCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		slog.Info("accessory server starting", slog.String("pin", b.cfg.PIN))
		if err := server.ListenAndServe(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			return errors.Wrapf(err, "accessory server")
		}

		return nil
	})

	for _, light := range lights {
		light := light
		group.Go(func() error {
			light.Run(runCtx)
			return nil
		})
	}

	err = group.Wait()

	for _, conn := range conns {
		if conn == nil {
			continue
		}
		if cerr := conn.Close(); cerr != nil {
			slog.Warn("closing device connection", slog.Any("error", cerr))
		}
	}

	return err
}
