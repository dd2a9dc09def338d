package bridge

import (
	"context"
	"sync"
	"testing"

	"github.com/cybre/yeelight-bridge/internal/config"
	"github.com/cybre/yeelight-bridge/internal/errors"
	"github.com/cybre/yeelight-bridge/internal/yeelight"
)

type fakeCall struct {
	method string
	params []interface{}
}

// fakeConn scripts a device: capabilities decide the accessory shape,
// props answer property reads and cmdErr fails mutating commands.
type fakeConn struct {
	mu    sync.Mutex
	calls []fakeCall

	caps     map[yeelight.Capability]bool
	props    yeelight.Properties
	propsErr error
	cmdErr   error

	events chan yeelight.Event
	closed bool
}

var _ DeviceConn = (*fakeConn)(nil)

func newFakeConn(caps ...yeelight.Capability) *fakeConn {
	c := &fakeConn{
		caps:   make(map[yeelight.Capability]bool),
		props:  yeelight.Properties{},
		events: make(chan yeelight.Event, 16),
	}
	for _, capability := range caps {
		c.caps[capability] = true
	}

	return c
}

func (c *fakeConn) record(method string, params ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, fakeCall{method: method, params: params})
}

func (c *fakeConn) recorded() []fakeCall {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]fakeCall(nil), c.calls...)
}

func (c *fakeConn) Matches(caps ...yeelight.Capability) bool {
	for _, capability := range caps {
		if !c.caps[capability] {
			return false
		}
	}

	return true
}

func (c *fakeConn) SetPower(_ context.Context, on bool, mode yeelight.PowerMode) error {
	if c.cmdErr != nil {
		return c.cmdErr
	}

	c.record("set_power", on, mode)
	return nil
}

func (c *fakeConn) SetBrightness(_ context.Context, level int) error {
	if c.cmdErr != nil {
		return c.cmdErr
	}

	c.record("set_bright", level)
	return nil
}

func (c *fakeConn) SetColor(_ context.Context, value string) error {
	if c.cmdErr != nil {
		return c.cmdErr
	}

	c.record("set_color", value)
	return nil
}

func (c *fakeConn) Call(_ context.Context, method string, params ...interface{}) ([]string, error) {
	if c.cmdErr != nil {
		return nil, c.cmdErr
	}

	c.record(method, params...)
	return []string{"ok"}, nil
}

func (c *fakeConn) LoadProperties(_ context.Context, names ...string) (yeelight.Properties, error) {
	if c.propsErr != nil {
		return nil, c.propsErr
	}

	props := make(yeelight.Properties, len(names))
	for _, name := range names {
		props[name] = c.props[name]
	}

	return props, nil
}

func (c *fakeConn) Events() <-chan yeelight.Event {
	return c.events
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	return nil
}

func testDevice() config.Device {
	return config.Device{Name: "Desk Lamp", Address: "192.168.1.50:55443"}
}

func colorCaps() []yeelight.Capability {
	return []yeelight.Capability{
		yeelight.CapPower,
		yeelight.CapBrightness,
		yeelight.CapColorTemperature,
		yeelight.CapColor,
	}
}

func TestNewLight_ColorAccessoryShape(t *testing.T) {
	conn := newFakeConn(colorCaps()...)
	l := NewLight(context.Background(), testDevice(), conn)

	if l.profile != ProfileColor {
		t.Fatalf("profile = %s, want color", l.profile)
	}

	bulb := l.accessory.Bulb
	if bulb.Brightness == nil || bulb.ColorTemperature == nil || bulb.Hue == nil || bulb.Saturation == nil {
		t.Error("color device should expose brightness, color temperature, hue and saturation")
	}
	if l.accessory.Moonlight != nil {
		t.Error("color device should not expose a moonlight service")
	}
	if l.accessory.FlowSwitch == nil {
		t.Error("color device should expose the flow switch")
	}
	if l.nightSwitch == nil {
		t.Error("color device should get a night mode companion switch")
	}
	if got := len(l.Accessories()); got != 2 {
		t.Errorf("Accessories() returned %d accessories, want 2", got)
	}
}

func TestNewLight_WhiteAccessoryShape(t *testing.T) {
	conn := newFakeConn(yeelight.CapPower, yeelight.CapBrightness, yeelight.CapColorTemperature)
	l := NewLight(context.Background(), testDevice(), conn)

	if l.profile != ProfileWhite {
		t.Fatalf("profile = %s, want white", l.profile)
	}

	bulb := l.accessory.Bulb
	if bulb.Brightness == nil || bulb.ColorTemperature == nil {
		t.Error("white device should expose brightness and color temperature")
	}
	if bulb.Hue != nil || bulb.Saturation != nil {
		t.Error("white device should not expose hue or saturation")
	}
	if l.accessory.FlowSwitch != nil || l.nightSwitch != nil {
		t.Error("white device should not get color extras")
	}
	if got := len(l.Accessories()); got != 1 {
		t.Errorf("Accessories() returned %d accessories, want 1", got)
	}
}

func TestNewLight_CeilingAccessoryShape(t *testing.T) {
	caps := append(colorCaps(), yeelight.CapMoonlight)
	conn := newFakeConn(caps...)
	l := NewLight(context.Background(), testDevice(), conn)

	if l.profile != ProfileCeiling {
		t.Fatalf("profile = %s, want ceiling", l.profile)
	}
	if l.accessory.Moonlight == nil {
		t.Error("ceiling device should expose the moonlight service")
	}
	if l.nightSwitch != nil {
		t.Error("ceiling device should not get the night mode switch")
	}
	if got := len(l.Accessories()); got != 1 {
		t.Errorf("Accessories() returned %d accessories, want 1", got)
	}
}

func TestNewLight_UnreachableDevice(t *testing.T) {
	l := NewLight(context.Background(), testDevice(), nil)

	if l.profile != ProfileMono {
		t.Fatalf("profile = %s, want mono", l.profile)
	}
	if l.accessory.Bulb.Brightness != nil || l.accessory.Bulb.Hue != nil {
		t.Error("unreachable device should expose power only")
	}
	if got := len(l.Accessories()); got != 1 {
		t.Errorf("Accessories() returned %d accessories, want 1", got)
	}

	// Handlers must degrade instead of panicking.
	l.setOn(true)
	l.setBrightness(50)
	l.setHue(120)

	if _, status := l.getOn(nil); status != statusCommunicationFailure {
		t.Errorf("getOn status = %d, want %d", status, statusCommunicationFailure)
	}
}

func TestNewLight_SeedsFromDeviceState(t *testing.T) {
	conn := newFakeConn(colorCaps()...)
	conn.props = yeelight.Properties{
		yeelight.PropModel:            "color4",
		yeelight.PropFirmwareVersion:  "2.1.6",
		yeelight.PropPower:            "on",
		yeelight.PropBrightness:       "75",
		yeelight.PropColorTemperature: "4000",
		yeelight.PropHue:              "120",
		yeelight.PropSaturation:       "40",
	}

	l := NewLight(context.Background(), testDevice(), conn)

	bulb := l.accessory.Bulb
	if !bulb.On.Value() {
		t.Error("power should seed to on")
	}
	if got := bulb.Brightness.Value(); got != 75 {
		t.Errorf("brightness seeded to %d, want 75", got)
	}
	if got := bulb.ColorTemperature.Value(); got != 250 {
		t.Errorf("color temperature seeded to %d mired, want 250", got)
	}
	if got := bulb.Hue.Value(); got != 120 {
		t.Errorf("hue seeded to %v, want 120", got)
	}
	if got := bulb.Saturation.Value(); got != 40 {
		t.Errorf("saturation seeded to %v, want 40", got)
	}
}

func TestSetHue_ComposesCombinedColorCommand(t *testing.T) {
	conn := newFakeConn(colorCaps()...)
	conn.props = yeelight.Properties{
		yeelight.PropPower:      "on",
		yeelight.PropHue:        "120",
		yeelight.PropSaturation: "40",
	}

	l := NewLight(context.Background(), testDevice(), conn)

	l.setHue(200)

	calls := conn.recorded()
	if len(calls) != 1 {
		t.Fatalf("recorded %d calls, want 1", len(calls))
	}
	if got := calls[0].params[0]; got != "hsl(200, 40%, 100%)" {
		t.Errorf("hue change sent %v, want combined hsl with kept saturation", got)
	}

	l.setSaturation(80)

	calls = conn.recorded()
	if got := calls[1].params[0]; got != "hsl(200, 80%, 100%)" {
		t.Errorf("saturation change sent %v, want combined hsl with kept hue", got)
	}
}

func TestSetHue_RestoresShadowOnFailure(t *testing.T) {
	conn := newFakeConn(colorCaps()...)
	conn.props = yeelight.Properties{
		yeelight.PropPower:      "on",
		yeelight.PropHue:        "120",
		yeelight.PropSaturation: "40",
	}

	l := NewLight(context.Background(), testDevice(), conn)

	conn.cmdErr = errors.New("device busy")
	l.setHue(300)

	conn.cmdErr = nil
	l.setSaturation(55)

	calls := conn.recorded()
	if len(calls) != 1 {
		t.Fatalf("recorded %d calls, want 1", len(calls))
	}
	if got := calls[0].params[0]; got != "hsl(120, 55%, 100%)" {
		t.Errorf("after failed hue change got %v, want composition from the previous hue", got)
	}
}

func TestSetBrightness_FloorsToDeviceMinimum(t *testing.T) {
	conn := newFakeConn(yeelight.CapPower, yeelight.CapBrightness)
	l := NewLight(context.Background(), testDevice(), conn)

	l.setBrightness(0)

	calls := conn.recorded()
	if len(calls) != 1 {
		t.Fatalf("recorded %d calls, want 1", len(calls))
	}
	if got := calls[0].params[0]; got != 1 {
		t.Errorf("brightness 0 sent as %v, want floor of 1", got)
	}
}

func TestSetColorTemperature_ClampsAndConverts(t *testing.T) {
	conn := newFakeConn(yeelight.CapPower, yeelight.CapBrightness, yeelight.CapColorTemperature)
	l := NewLight(context.Background(), testDevice(), conn)

	l.setColorTemperature(100)

	calls := conn.recorded()
	if len(calls) != 1 {
		t.Fatalf("recorded %d calls, want 1", len(calls))
	}
	if got := calls[0].params[0]; got != "6494K" {
		t.Errorf("color temperature 100 mired sent as %v, want clamped 6494K", got)
	}
}

func TestGetters_ReadDeviceState(t *testing.T) {
	conn := newFakeConn(colorCaps()...)
	conn.props = yeelight.Properties{
		yeelight.PropPower:            "on",
		yeelight.PropBrightness:       "42",
		yeelight.PropColorTemperature: "4000",
	}

	l := NewLight(context.Background(), testDevice(), conn)

	if v, status := l.getOn(nil); status != 0 || v != true {
		t.Errorf("getOn = (%v, %d), want (true, 0)", v, status)
	}
	if v, status := l.getBrightness(nil); status != 0 || v != 42 {
		t.Errorf("getBrightness = (%v, %d), want (42, 0)", v, status)
	}
	if v, status := l.getColorTemperature(nil); status != 0 || v != 250 {
		t.Errorf("getColorTemperature = (%v, %d), want (250, 0)", v, status)
	}

	conn.propsErr = errors.New("read timeout")
	if _, status := l.getBrightness(nil); status != statusCommunicationFailure {
		t.Errorf("getBrightness status = %d, want %d", status, statusCommunicationFailure)
	}
}

func TestProfileString(t *testing.T) {
	tests := []struct {
		profile Profile
		want    string
	}{
		{ProfileMono, "mono"},
		{ProfileWhite, "white"},
		{ProfileColor, "color"},
		{ProfileCeiling, "ceiling"},
	}

	for _, tt := range tests {
		if got := tt.profile.String(); got != tt.want {
			t.Errorf("Profile(%d).String() = %q, want %q", tt.profile, got, tt.want)
		}
	}
}
