package service

import (
	"github.com/brutella/hap/characteristic"
	hapservice "github.com/brutella/hap/service"
)

const TypeLightbulb = "43"

// LightbulbOptions selects which optional characteristics a Lightbulb
// carries. Mired bounds apply to the color temperature characteristic.
type LightbulbOptions struct {
	Brightness       bool
	ColorTemperature bool
	Color            bool
	MinMired         int
	MaxMired         int
}

// Lightbulb is a lightbulb service shaped after a device's capability
// set. On is always present; every other characteristic is nil unless it
// was requested, and callers must check before touching it.
type Lightbulb struct {
	*hapservice.S

	On               *characteristic.On
	Brightness       *characteristic.Brightness
	ColorTemperature *characteristic.ColorTemperature
	Hue              *characteristic.Hue
	Saturation       *characteristic.Saturation
}

func NewLightbulb(opts LightbulbOptions) *Lightbulb {
	s := Lightbulb{}
	s.S = hapservice.New(TypeLightbulb)

	s.On = characteristic.NewOn()
	s.AddC(s.On.C)

	if opts.Brightness {
		s.Brightness = characteristic.NewBrightness()
		s.AddC(s.Brightness.C)
	}

	if opts.ColorTemperature {
		s.ColorTemperature = characteristic.NewColorTemperature()
		s.ColorTemperature.SetMinValue(opts.MinMired)
		s.ColorTemperature.SetMaxValue(opts.MaxMired)
		s.AddC(s.ColorTemperature.C)
	}

	if opts.Color {
		s.Hue = characteristic.NewHue()
		s.AddC(s.Hue.C)

		s.Saturation = characteristic.NewSaturation()
		s.AddC(s.Saturation.C)
	}

	return &s
}
