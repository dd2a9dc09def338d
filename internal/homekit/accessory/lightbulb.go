package accessory

import (
	hapaccessory "github.com/brutella/hap/accessory"
	"github.com/cybre/yeelight-bridge/internal/homekit/service"
)

// LightbulbConfig picks the services and characteristics a bridged bulb
// exposes, mirroring its detected capabilities.
type LightbulbConfig struct {
	Brightness       bool
	ColorTemperature bool
	Color            bool
	Moonlight        bool
	ColorFlow        bool
	MinMired         int
	MaxMired         int
}

// Lightbulb is one bridged bulb. Moonlight and FlowSwitch are nil unless
// configured.
type Lightbulb struct {
	*hapaccessory.A

	Bulb       *service.Lightbulb
	Moonlight  *service.Moonlight
	FlowSwitch *service.NamedSwitch
}

func NewLightbulb(info hapaccessory.Info, cfg LightbulbConfig) *Lightbulb {
	a := Lightbulb{}
	a.A = hapaccessory.New(info, hapaccessory.TypeLightbulb)

	a.Bulb = service.NewLightbulb(service.LightbulbOptions{
		Brightness:       cfg.Brightness,
		ColorTemperature: cfg.ColorTemperature,
		Color:            cfg.Color,
		MinMired:         cfg.MinMired,
		MaxMired:         cfg.MaxMired,
	})
	a.AddS(a.Bulb.S)

	if cfg.Moonlight {
		a.Moonlight = service.NewMoonlight()
		a.AddS(a.Moonlight.S)
	}

	if cfg.ColorFlow {
		a.FlowSwitch = service.NewNamedSwitch("Color Flow")
		a.AddS(a.FlowSwitch.S)
	}

	return &a
}
