package yeelight

// Capability identifies one controllable aspect of a bulb. The set is
// derived once per connection from which properties the bulb answers:
// unsupported properties come back empty from get_prop.
type Capability string

const (
	CapPower            Capability = "cap:power"
	CapBrightness       Capability = "cap:brightness"
	CapColorTemperature Capability = "cap:color:temperature"
	CapColor            Capability = "cap:color:full"
	CapMoonlight        Capability = "cap:moonlight"
)

// probeProperties is the set requested right after connecting. It covers
// everything capability detection looks at plus the identity properties
// callers want for accessory metadata.
var probeProperties = []string{
	PropPower,
	PropBrightness,
	PropColorTemperature,
	PropHue,
	PropSaturation,
	PropActiveMode,
	PropName,
	PropModel,
	PropFirmwareVersion,
}

func deriveCapabilities(props Properties) map[Capability]bool {
	caps := make(map[Capability]bool)

	if props[PropPower] != "" {
		caps[CapPower] = true
	}
	if props[PropBrightness] != "" {
		caps[CapBrightness] = true
	}
	if props[PropColorTemperature] != "" {
		caps[CapColorTemperature] = true
	}
	if props[PropHue] != "" && props[PropSaturation] != "" {
		caps[CapColor] = true
	}
	// Only ceiling models report an active mode, day or moonlight.
	if props[PropActiveMode] != "" {
		caps[CapMoonlight] = true
	}

	return caps
}
