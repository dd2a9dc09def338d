package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	hapaccessory "github.com/brutella/hap/accessory"
	"github.com/cybre/yeelight-bridge/internal/config"
	"github.com/cybre/yeelight-bridge/internal/errors"
	"github.com/cybre/yeelight-bridge/internal/homekit"
	"github.com/cybre/yeelight-bridge/internal/homekit/accessory"
	"github.com/cybre/yeelight-bridge/internal/yeelight"
)

const manufacturer = "Yeelight"

// HAP status returned when the device cannot be reached (-70402).
const statusCommunicationFailure = -70402

// Profile is the coarse device class an adapter serves. It decides the
// accessory shape: color bulbs get the night mode companion and the flow
// switch, ceiling models get the moonlight service.
type Profile int

const (
	ProfileMono Profile = iota
	ProfileWhite
	ProfileColor
	ProfileCeiling
)

func (p Profile) String() string {
	switch p {
	case ProfileWhite:
		return "white"
	case ProfileColor:
		return "color"
	case ProfileCeiling:
		return "ceiling"
	default:
		return "mono"
	}
}

func deriveProfile(conn DeviceConn) Profile {
	switch {
	case conn == nil:
		return ProfileMono
	case conn.Matches(yeelight.CapMoonlight):
		return ProfileCeiling
	case conn.Matches(yeelight.CapColor):
		return ProfileColor
	case conn.Matches(yeelight.CapColorTemperature):
		return ProfileWhite
	default:
		return ProfileMono
	}
}

// setupProperties is loaded once per adapter to fill accessory metadata
// and seed the characteristics with the device's current state.
var setupProperties = []string{
	yeelight.PropModel,
	yeelight.PropFirmwareVersion,
	yeelight.PropPower,
	yeelight.PropBrightness,
	yeelight.PropColorTemperature,
	yeelight.PropHue,
	yeelight.PropSaturation,
	yeelight.PropActiveMode,
	yeelight.PropMoonlightBrightness,
}

// Light adapts one bulb to its accessory. The shadow hue and saturation
// always hold the last successfully applied pair; the device only takes
// combined color commands, so both setters compose from the shadow.
type Light struct {
	name    string
	conn    DeviceConn
	ctx     context.Context
	logger  *slog.Logger
	profile Profile

	accessory   *accessory.Lightbulb
	nightSwitch *hapaccessory.Switch

	mu         sync.Mutex
	hue        float64
	saturation float64
	suppress   map[eventKind]time.Time

	now        func() time.Time
	rearmDelay time.Duration
}

// NewLight probes the device, builds the accessory matching its
// capabilities and binds all handlers. A nil conn builds a bare power
// accessory whose handlers report the device unreachable.
func NewLight(ctx context.Context, device config.Device, conn DeviceConn) *Light {
	l := &Light{
		name:       device.Name,
		conn:       conn,
		ctx:        ctx,
		logger:     slog.With(slog.String("device", device.Name)),
		profile:    deriveProfile(conn),
		suppress:   make(map[eventKind]time.Time),
		now:        time.Now,
		rearmDelay: time.Second,
	}

	info := hapaccessory.Info{
		Name:         device.Name,
		SerialNumber: homekit.DeviceSerial(device.Address),
		Manufacturer: manufacturer,
		Model:        "unknown",
		Firmware:     "unknown",
	}

	var props yeelight.Properties
	if conn != nil {
		var err error
		props, err = conn.LoadProperties(ctx, setupProperties...)
		if err != nil {
			l.logger.Warn("loading initial device state", slog.Any("error", err))
			props = nil
		}
	}

	if props[yeelight.PropModel] != "" {
		info.Model = props[yeelight.PropModel]
	}
	if props[yeelight.PropFirmwareVersion] != "" {
		info.Firmware = props[yeelight.PropFirmwareVersion]
	}

	l.accessory = accessory.NewLightbulb(info, l.accessoryConfig())

	if l.profile == ProfileColor {
		l.nightSwitch = hapaccessory.NewSwitch(hapaccessory.Info{
			Name:         device.Name + " Night Mode",
			SerialNumber: homekit.DeviceSerial(device.Address + "/night"),
			Manufacturer: manufacturer,
			Model:        info.Model,
			Firmware:     info.Firmware,
		})
	}

	l.seed(props)
	l.bind()

	l.logger.Info("adapter ready", slog.String("profile", l.profile.String()))

	return l
}

// Accessories returns everything this adapter publishes: the bulb and,
// for color devices, the night mode companion switch.
func (l *Light) Accessories() []*hapaccessory.A {
	as := []*hapaccessory.A{l.accessory.A}
	if l.nightSwitch != nil {
		as = append(as, l.nightSwitch.A)
	}

	return as
}

func (l *Light) accessoryConfig() accessory.LightbulbConfig {
	if l.conn == nil {
		return accessory.LightbulbConfig{}
	}

	return accessory.LightbulbConfig{
		Brightness:       l.conn.Matches(yeelight.CapBrightness),
		ColorTemperature: l.conn.Matches(yeelight.CapColorTemperature),
		Color:            l.conn.Matches(yeelight.CapColor),
		Moonlight:        l.conn.Matches(yeelight.CapMoonlight),
		ColorFlow:        l.conn.Matches(yeelight.CapColor),
		MinMired:         minMired,
		MaxMired:         maxMired,
	}
}

// seed pushes the probed device state into the characteristics so the
// accessory starts out truthful instead of at platform defaults.
func (l *Light) seed(props yeelight.Properties) {
	if props == nil {
		return
	}

	bulb := l.accessory.Bulb
	bulb.On.SetValue(props.Bool(yeelight.PropPower))

	if bulb.Brightness != nil {
		if v, ok := props.Int(yeelight.PropBrightness); ok {
			bulb.Brightness.SetValue(v)
		}
	}

	if bulb.ColorTemperature != nil {
		if kelvin, ok := props.Int(yeelight.PropColorTemperature); ok && kelvin > 0 {
			bulb.ColorTemperature.SetValue(clampMired(kelvinToMired(kelvin)))
		}
	}

	if bulb.Hue != nil {
		hue, hok := props.Int(yeelight.PropHue)
		sat, sok := props.Int(yeelight.PropSaturation)
		if hok && sok {
			bulb.Hue.SetValue(float64(hue))
			bulb.Saturation.SetValue(float64(sat))
			l.hue = float64(hue)
			l.saturation = float64(sat)
		}
	}

	if l.accessory.Moonlight != nil {
		l.accessory.Moonlight.On.SetValue(props[yeelight.PropActiveMode] == "1")
		if v, ok := props.Int(yeelight.PropMoonlightBrightness); ok && v >= 1 {
			l.accessory.Moonlight.Brightness.SetValue(v)
		}
	}
}

// bind attaches setters and on-demand getters. Only characteristics that
// exist get handlers, so unsupported operations can never fire.
func (l *Light) bind() {
	bulb := l.accessory.Bulb

	bulb.On.OnValueRemoteUpdate(l.setOn)
	bulb.On.C.ValueRequestFunc = l.getOn

	if bulb.Brightness != nil {
		bulb.Brightness.OnValueRemoteUpdate(l.setBrightness)
		bulb.Brightness.C.ValueRequestFunc = l.getBrightness
	}

	if bulb.ColorTemperature != nil {
		bulb.ColorTemperature.OnValueRemoteUpdate(l.setColorTemperature)
		bulb.ColorTemperature.C.ValueRequestFunc = l.getColorTemperature
	}

	if bulb.Hue != nil {
		bulb.Hue.OnValueRemoteUpdate(l.setHue)
		bulb.Hue.C.ValueRequestFunc = l.getHue

		bulb.Saturation.OnValueRemoteUpdate(l.setSaturation)
		bulb.Saturation.C.ValueRequestFunc = l.getSaturation
	}

	if l.accessory.Moonlight != nil {
		l.accessory.Moonlight.On.OnValueRemoteUpdate(l.setMoonlight)
		l.accessory.Moonlight.On.C.ValueRequestFunc = l.getMoonlight

		l.accessory.Moonlight.Brightness.OnValueRemoteUpdate(l.setMoonlightBrightness)
		l.accessory.Moonlight.Brightness.C.ValueRequestFunc = l.getMoonlightBrightness
	}

	if l.accessory.FlowSwitch != nil {
		l.accessory.FlowSwitch.On.OnValueRemoteUpdate(func(bool) { l.toggleColorFlow() })
	}

	if l.nightSwitch != nil {
		l.nightSwitch.Switch.On.OnValueRemoteUpdate(l.setNightMode)
	}
}

func (l *Light) setOn(on bool) {
	if l.conn == nil {
		l.logger.Error("device unreachable, dropping power request", slog.Bool("on", on))
		return
	}

	if err := l.conn.SetPower(l.ctx, on, yeelight.ModeNormal); err != nil {
		l.logger.Error("set power", slog.Bool("on", on), slog.Any("error", err))
		return
	}

	l.stamp(kindPower)
}

func (l *Light) setBrightness(level int) {
	if l.conn == nil {
		l.logger.Error("device unreachable, dropping brightness request", slog.Int("level", level))
		return
	}

	// The platform scale starts at 0, the device's at 1.
	if level < 1 {
		level = 1
	}

	if err := l.conn.SetBrightness(l.ctx, level); err != nil {
		l.logger.Error("set brightness", slog.Int("level", level), slog.Any("error", err))
		return
	}

	l.stamp(kindBrightness)
}

func (l *Light) setColorTemperature(mired int) {
	if l.conn == nil {
		l.logger.Error("device unreachable, dropping color temperature request", slog.Int("mired", mired))
		return
	}

	kelvin := miredToKelvin(clampMired(mired))

	if err := l.conn.SetColor(l.ctx, fmt.Sprintf("%dK", kelvin)); err != nil {
		l.logger.Error("set color temperature", slog.Int("kelvin", kelvin), slog.Any("error", err))
		return
	}

	l.stamp(kindColor)
}

func (l *Light) setHue(hue float64) {
	if l.conn == nil {
		l.logger.Error("device unreachable, dropping hue request")
		return
	}

	l.mu.Lock()
	prev := l.hue
	l.hue = hue
	value := l.hslValue()
	l.mu.Unlock()

	if err := l.conn.SetColor(l.ctx, value); err != nil {
		l.logger.Error("set hue", slog.Float64("hue", hue), slog.Any("error", err))

		l.mu.Lock()
		l.hue = prev
		l.mu.Unlock()
		return
	}

	l.stamp(kindColor)
}

func (l *Light) setSaturation(saturation float64) {
	if l.conn == nil {
		l.logger.Error("device unreachable, dropping saturation request")
		return
	}

	l.mu.Lock()
	prev := l.saturation
	l.saturation = saturation
	value := l.hslValue()
	l.mu.Unlock()

	if err := l.conn.SetColor(l.ctx, value); err != nil {
		l.logger.Error("set saturation", slog.Float64("saturation", saturation), slog.Any("error", err))

		l.mu.Lock()
		l.saturation = prev
		l.mu.Unlock()
		return
	}

	l.stamp(kindColor)
}

func (l *Light) setMoonlight(on bool) {
	if l.conn == nil {
		l.logger.Error("device unreachable, dropping moonlight request", slog.Bool("on", on))
		return
	}

	mode := yeelight.ModeColorTemperature
	if on {
		mode = yeelight.ModeMoonlight
	}

	if err := l.conn.SetPower(l.ctx, true, mode); err != nil {
		l.logger.Error("set moonlight", slog.Bool("on", on), slog.Any("error", err))
		return
	}

	l.stamp(kindMode)
}

func (l *Light) setMoonlightBrightness(level int) {
	if l.conn == nil {
		l.logger.Error("device unreachable, dropping moonlight brightness request", slog.Int("level", level))
		return
	}

	if level < 1 {
		level = 1
	}

	// While the bulb renders moonlight, set_bright adjusts the night
	// light level.
	if err := l.conn.SetBrightness(l.ctx, level); err != nil {
		l.logger.Error("set moonlight brightness", slog.Int("level", level), slog.Any("error", err))
		return
	}

	l.stamp(kindMoonBrightness)
}

// hslValue composes the combined color command from the shadow pair.
// Callers must hold l.mu.
func (l *Light) hslValue() string {
	return fmt.Sprintf("hsl(%d, %d%%, 100%%)", int(l.hue), int(l.saturation))
}

func (l *Light) readProps(names ...string) (yeelight.Properties, error) {
	if l.conn == nil {
		return nil, errors.New("device unreachable")
	}

	props, err := l.conn.LoadProperties(l.ctx, names...)
	if err != nil {
		l.logger.Error("read device properties", slog.Any("error", err))
		return nil, err
	}

	return props, nil
}

func (l *Light) getOn(*http.Request) (interface{}, int) {
	props, err := l.readProps(yeelight.PropPower)
	if err != nil {
		return nil, statusCommunicationFailure
	}

	return props.Bool(yeelight.PropPower), 0
}

func (l *Light) getBrightness(*http.Request) (interface{}, int) {
	props, err := l.readProps(yeelight.PropBrightness)
	if err != nil {
		return nil, statusCommunicationFailure
	}

	v, ok := props.Int(yeelight.PropBrightness)
	if !ok {
		return nil, statusCommunicationFailure
	}

	return v, 0
}

func (l *Light) getColorTemperature(*http.Request) (interface{}, int) {
	props, err := l.readProps(yeelight.PropColorTemperature)
	if err != nil {
		return nil, statusCommunicationFailure
	}

	kelvin, ok := props.Int(yeelight.PropColorTemperature)
	if !ok || kelvin <= 0 {
		return nil, statusCommunicationFailure
	}

	return clampMired(kelvinToMired(kelvin)), 0
}

func (l *Light) getHue(*http.Request) (interface{}, int) {
	props, err := l.readProps(yeelight.PropHue)
	if err != nil {
		return nil, statusCommunicationFailure
	}

	v, ok := props.Int(yeelight.PropHue)
	if !ok {
		return nil, statusCommunicationFailure
	}

	return float64(v), 0
}

func (l *Light) getSaturation(*http.Request) (interface{}, int) {
	props, err := l.readProps(yeelight.PropSaturation)
	if err != nil {
		return nil, statusCommunicationFailure
	}

	v, ok := props.Int(yeelight.PropSaturation)
	if !ok {
		return nil, statusCommunicationFailure
	}

	return float64(v), 0
}

func (l *Light) getMoonlight(*http.Request) (interface{}, int) {
	props, err := l.readProps(yeelight.PropActiveMode)
	if err != nil {
		return nil, statusCommunicationFailure
	}

	return props[yeelight.PropActiveMode] == "1", 0
}

func (l *Light) getMoonlightBrightness(*http.Request) (interface{}, int) {
	props, err := l.readProps(yeelight.PropMoonlightBrightness)
	if err != nil {
		return nil, statusCommunicationFailure
	}

	v, ok := props.Int(yeelight.PropMoonlightBrightness)
	if !ok || v < 1 {
		return nil, statusCommunicationFailure
	}

	return v, 0
}
