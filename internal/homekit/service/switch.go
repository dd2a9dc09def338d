package service

import (
	"github.com/brutella/hap/characteristic"
	hapservice "github.com/brutella/hap/service"
)

const TypeSwitch = "49"

// NamedSwitch is a switch service with a display name, for secondary
// toggles that hang off another accessory.
type NamedSwitch struct {
	*hapservice.S

	On *characteristic.On
}

func NewNamedSwitch(label string) *NamedSwitch {
	s := NamedSwitch{}
	s.S = hapservice.New(TypeSwitch)

	name := characteristic.NewName()
	name.SetValue(label)
	s.AddC(name.C)

	s.On = characteristic.NewOn()
	s.AddC(s.On.C)

	return &s
}
