package service

import (
	"github.com/brutella/hap/characteristic"
	hapservice "github.com/brutella/hap/service"
)

// Moonlight is the secondary lightbulb service ceiling models expose for
// their low-intensity night light.
type Moonlight struct {
	*hapservice.S

	On         *characteristic.On
	Brightness *characteristic.Brightness
}

func NewMoonlight() *Moonlight {
	s := Moonlight{}
	s.S = hapservice.New(TypeLightbulb)

	name := characteristic.NewName()
	name.SetValue("Moonlight")
	s.AddC(name.C)

	s.On = characteristic.NewOn()
	s.AddC(s.On.C)

	s.Brightness = characteristic.NewBrightness()
	s.AddC(s.Brightness.C)

	return &s
}
