package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	haplog "github.com/brutella/hap/log"
	"github.com/cybre/yeelight-bridge/internal/bridge"
	"github.com/cybre/yeelight-bridge/internal/config"
	"github.com/cybre/yeelight-bridge/internal/errors"
	"github.com/cybre/yeelight-bridge/internal/homekit"
	"github.com/cybre/yeelight-bridge/internal/yeelight"
	"github.com/urfave/cli/v2"
	"go.mills.io/bitcask/v2"
)

func main() {
	var configPath string

	app := cli.App{
		Name:  "yeelight-bridge",
		Usage: "expose Yeelight devices as HomeKit accessories",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Value:       "config.json",
				Usage:       "configuration file",
				Destination: &configPath,
			},
		},
		Action: func(c *cli.Context) error {
			return run(c.Context, configPath)
		},
		Commands: []*cli.Command{
			{
				Name:  "discover",
				Usage: "scan the local network and print config entries for the devices found",
				Action: func(c *cli.Context) error {
					return discover(c.Context)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("exiting", slog.String("stack", errors.Stack(err)))
		os.Exit(1)
	}
}

func run(parent context.Context, configPath string) error {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		return errors.Wrapf(err, "load config %s", configPath)
	}

	var loggerOpts *slog.HandlerOptions = nil
	if cfg.Debug {
		loggerOpts = &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}
		haplog.Debug.Enable()
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, loggerOpts))
	slog.SetDefault(logger)

	db, err := bitcask.Open(cfg.Storage)
	if err != nil {
		return errors.Wrapf(err, "open pairing store %s", cfg.Storage)
	}
	defer db.Close()

	return bridge.New(cfg, connectDevice, homekit.NewStore(db)).Run(ctx)
}

func connectDevice(ctx context.Context, device config.Device) (bridge.DeviceConn, error) {
	return yeelight.Connect(ctx, yeelight.Settings{
		Name:    device.Name,
		Address: device.Address,
		Token:   device.Token,
	})
}

// discover prints found devices as entries ready to paste into the
// config's devices list.
func discover(ctx context.Context) error {
	fmt.Println("searching for devices...")

	found, err := yeelight.Discover(ctx)
	if err != nil {
		return errors.Wrapf(err, "device discovery")
	}

	if len(found) == 0 {
		fmt.Println("no devices answered, make sure LAN control is enabled in the vendor app")
		return nil
	}

	devices := make([]config.Device, 0, len(found))
	for _, ad := range found {
		name := ad.Name
		if name == "" {
			name = ad.Model
		}

		devices = append(devices, config.Device{Name: name, Address: ad.Address})
	}

	out, err := json.MarshalIndent(devices, "", "  ")
	if err != nil {
		return errors.Wrap(err)
	}

	fmt.Println(string(out))
	return nil
}
