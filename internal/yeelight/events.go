package yeelight

import (
	"strconv"

	"github.com/crazy3lf/colorconv"
	"github.com/cybre/yeelight-bridge/internal/utils"
)

// ColorMode mirrors the color_mode property: which color system the bulb
// is currently rendering.
type ColorMode uint8

const (
	ColorModeRGB ColorMode = iota + 1
	ColorModeTemperature
	ColorModeHSV
)

// Event is a typed state change decoded from a "props" notification.
type Event interface {
	isEvent()
}

type PowerChanged struct {
	On bool
}

type BrightnessChanged struct {
	Brightness int
}

// ColorChanged reports a color update. Mode says which fields are
// meaningful: Kelvin for ColorModeTemperature, Hue/Saturation for
// ColorModeHSV and ColorModeRGB. RGB-mode updates arrive from the bulb
// as a packed integer and are converted to hue and saturation here, so
// consumers only ever deal with two color systems.
type ColorChanged struct {
	Mode       ColorMode
	Hue        float64
	Saturation float64
	Kelvin     int
	RGB        uint32
}

// ModeChanged reports a switch between normal and moonlight rendering.
// Only ceiling models emit it.
type ModeChanged struct {
	Moonlight bool
}

type MoonlightBrightnessChanged struct {
	Brightness int
}

func (PowerChanged) isEvent()               {}
func (BrightnessChanged) isEvent()          {}
func (ColorChanged) isEvent()               {}
func (ModeChanged) isEvent()                {}
func (MoonlightBrightnessChanged) isEvent() {}

// colorState carries the last known hue and saturation between
// notifications. The firmware only reports properties that changed, so a
// hue-only update has to be completed with the previous saturation to
// form a full color event, the way the bulb's own apps treat it.
type colorState struct {
	hue        float64
	saturation float64
}

// decodeProps turns the payload of a "props" notification into events.
// Unknown properties are ignored and malformed values are dropped
// field-wise. Events are produced in a fixed property order.
func decodeProps(params map[string]interface{}, prev colorState) ([]Event, colorState) {
	events := make([]Event, 0, len(params))
	state := prev

	if v, ok := stringParam(params, PropPower); ok {
		events = append(events, PowerChanged{On: v == "on"})
	}

	if v, ok := intParam(params, PropBrightness); ok {
		events = append(events, BrightnessChanged{Brightness: v})
	}

	if v, ok := intParam(params, PropColorTemperature); ok {
		events = append(events, ColorChanged{Mode: ColorModeTemperature, Kelvin: v})
	}

	hue, hasHue := intParam(params, PropHue)
	sat, hasSat := intParam(params, PropSaturation)
	if hasHue || hasSat {
		if hasHue {
			state.hue = float64(hue)
		}
		if hasSat {
			state.saturation = float64(sat)
		}
		events = append(events, ColorChanged{
			Mode:       ColorModeHSV,
			Hue:        state.hue,
			Saturation: state.saturation,
		})
	}

	if v, ok := intParam(params, PropRGB); ok {
		rgb := uint32(v)
		h, s, _ := colorconv.RGBToHSL(utils.IntToRGB(rgb))
		state.hue = h
		state.saturation = s * 100

		events = append(events, ColorChanged{
			Mode:       ColorModeRGB,
			Hue:        state.hue,
			Saturation: state.saturation,
			RGB:        rgb,
		})
	}

	if v, ok := intParam(params, PropActiveMode); ok {
		events = append(events, ModeChanged{Moonlight: v == 1})
	}

	if v, ok := intParam(params, PropMoonlightBrightness); ok {
		events = append(events, MoonlightBrightnessChanged{Brightness: v})
	}

	return events, state
}

func stringParam(params map[string]interface{}, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}

	s, ok := v.(string)

	return s, ok
}

// intParam reads a numeric property. Notifications carry numbers as JSON
// numbers, but some firmwares send them as strings; both are accepted.
func intParam(params map[string]interface{}, key string) (int, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}

	switch n := v.(type) {
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}

		return i, true
	}

	return 0, false
}
