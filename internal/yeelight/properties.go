package yeelight

import "strconv"

// Property names understood by get_prop and reported through "props"
// notifications. Values are always transported as strings; numeric
// properties parse on demand.
const (
	PropPower               = "power"
	PropBrightness          = "bright"
	PropColorMode           = "color_mode"
	PropColorTemperature    = "ct"
	PropRGB                 = "rgb"
	PropHue                 = "hue"
	PropSaturation          = "sat"
	PropName                = "name"
	PropModel               = "model"
	PropFirmwareVersion     = "fw_ver"
	PropActiveMode          = "active_mode"
	PropMoonlightBrightness = "nl_br"
	PropFlowing             = "flowing"
)

// Properties holds a get_prop response keyed by property name. A bulb
// answers an empty string for every property it does not support.
type Properties map[string]string

func (p Properties) Int(name string) (int, bool) {
	v, err := strconv.Atoi(p[name])
	if err != nil {
		return 0, false
	}

	return v, true
}

func (p Properties) Bool(name string) bool {
	return p[name] == "on" || p[name] == "1"
}
