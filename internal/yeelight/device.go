// Package yeelight is a client for the Yeelight LAN control protocol:
// JSON commands over a persistent TCP connection, with replies matched
// by id and unsolicited property notifications decoded into typed
// events. Capabilities are detected once per connection by probing
// which properties the bulb answers.
package yeelight

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cybre/yeelight-bridge/internal/errors"
)

const (
	// DefaultPort is the LAN control port bulbs listen on.
	DefaultPort = 55443

	commandTimeout = 3 * time.Second
	// transition time in milliseconds for smooth effects
	transitionDuration = 500

	lineEnding = "\r\n"
)

var (
	ErrBrightnessInvalid = fmt.Errorf("brightness must be between 1 and 100")
	ErrHueInvalid        = fmt.Errorf("hue must be between 0 and 359")
	ErrSaturationInvalid = fmt.Errorf("saturation must be between 0 and 100")
	ErrKelvinInvalid     = fmt.Errorf("color temperature must be between 1700K and 6500K")
)

type Effect string

const (
	Sudden Effect = "sudden"
	Smooth Effect = "smooth"
)

// PowerMode selects the rendering state a bulb switches to when turned
// on. Values follow the set_power mode parameter.
type PowerMode int

const (
	ModeNormal PowerMode = iota
	ModeColorTemperature
	ModeRGB
	ModeHSV
	ModeColorFlow
	ModeMoonlight
)

// Settings identifies one bulb to connect to. Token is the cloud pairing
// token; LAN control does not consume it, but it travels with the device
// so configurations shared with cloud-bound tooling keep working.
type Settings struct {
	Name    string
	Address string
	Token   string
}

// Device is a connected bulb. One command is in flight at a time; typed
// change events stream on Events until the connection closes.
type Device struct {
	settings Settings
	conn     net.Conn
	logger   *slog.Logger

	cmdMu         sync.Mutex
	lastCommandID int
	results       chan commandResult

	events  chan Event
	colorMu sync.Mutex
	color   colorState

	caps map[Capability]bool

	closeOnce sync.Once
	closeErr  error
}

// Connect dials the bulb, starts the reader and probes its capabilities.
// The connection is tied to ctx: cancellation closes it and ends the
// event stream. There is no reconnection; a lost connection stays lost.
func Connect(ctx context.Context, settings Settings) (*Device, error) {
	addr := withDefaultPort(settings.Address)

	dialer := net.Dialer{Timeout: commandTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to %s", addr)
	}

	d := &Device{
		settings: settings,
		conn:     conn,
		logger:   slog.With(slog.String("device", settings.Name), slog.String("address", addr)),
		results:  make(chan commandResult, 4),
		events:   make(chan Event, 16),
	}

	go d.read()
	go func() {
		<-ctx.Done()
		_ = d.Close()
	}()

	props, err := d.LoadProperties(ctx, probeProperties...)
	if err != nil {
		_ = d.Close()
		return nil, errors.Wrapf(err, "probe properties of %s", addr)
	}

	d.caps = deriveCapabilities(props)

	d.colorMu.Lock()
	if hue, ok := props.Int(PropHue); ok {
		d.color.hue = float64(hue)
	}
	if sat, ok := props.Int(PropSaturation); ok {
		d.color.saturation = float64(sat)
	}
	d.colorMu.Unlock()

	d.logger.Info("device connected",
		slog.String("model", props[PropModel]),
		slog.String("firmware", props[PropFirmwareVersion]),
		slog.Any("capabilities", d.Capabilities()))

	return d, nil
}

// Matches reports whether the device supports every given capability.
func (d *Device) Matches(caps ...Capability) bool {
	for _, c := range caps {
		if !d.caps[c] {
			return false
		}
	}

	return true
}

// Capabilities returns the detected capability set in stable order.
func (d *Device) Capabilities() []Capability {
	caps := make([]Capability, 0, len(d.caps))
	for c := range d.caps {
		caps = append(caps, c)
	}
	slices.Sort(caps)

	return caps
}

func (d *Device) SetPower(ctx context.Context, on bool, mode PowerMode) error {
	state := "off"
	if on {
		state = "on"
	}

	params := []interface{}{state, Smooth, transitionDuration}
	if on && mode != ModeNormal {
		params = append(params, int(mode))
	}

	_, err := d.executeCommand(ctx, "set_power", params...)

	return err
}

func (d *Device) SetBrightness(ctx context.Context, level int) error {
	if level < 1 || level > 100 {
		return errors.Wrap(ErrBrightnessInvalid)
	}

	_, err := d.executeCommand(ctx, "set_bright", level, Smooth, transitionDuration)

	return err
}

// SetColor applies a color expression; see parseColorCommand for the
// accepted forms.
func (d *Device) SetColor(ctx context.Context, value string) error {
	method, params, err := parseColorCommand(value)
	if err != nil {
		return err
	}

	params = append(params, Smooth, transitionDuration)

	_, err = d.executeCommand(ctx, method, params...)

	return err
}

// Call issues a raw protocol command. Scenes and flow control go through
// here; so does anything else the typed setters don't cover.
func (d *Device) Call(ctx context.Context, method string, params ...interface{}) ([]string, error) {
	return d.executeCommand(ctx, method, params...)
}

// LoadProperties reads the named properties with get_prop. Unsupported
// properties come back as empty strings.
func (d *Device) LoadProperties(ctx context.Context, names ...string) (Properties, error) {
	params := make([]interface{}, len(names))
	for i, name := range names {
		params[i] = name
	}

	values, err := d.executeCommand(ctx, "get_prop", params...)
	if err != nil {
		return nil, err
	}
	if len(values) != len(names) {
		return nil, errors.Errorf("get_prop returned %d values for %d properties", len(values), len(names))
	}

	props := make(Properties, len(names))
	for i, name := range names {
		props[name] = values[i]
	}

	return props, nil
}

// Events returns the device's change event stream. The channel is
// bounded; if the consumer falls behind, events are dropped rather than
// stalling the connection reader. It is closed when the connection ends.
func (d *Device) Events() <-chan Event {
	return d.events
}

func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.conn.Close()
	})

	return d.closeErr
}

func (d *Device) executeCommand(ctx context.Context, method string, params ...interface{}) ([]string, error) {
	d.cmdMu.Lock()
	defer d.cmdMu.Unlock()

	d.lastCommandID++
	cmd := newCommand(d.lastCommandID, method, params...)

	payload, err := cmd.encode()
	if err != nil {
		return nil, err
	}

	d.logger.Debug("executing command", slog.String("command", strings.TrimSuffix(string(payload), lineEnding)))

	if err := d.conn.SetWriteDeadline(time.Now().Add(commandTimeout)); err != nil {
		return nil, errors.Wrapf(err, "set write deadline")
	}
	if _, err := d.conn.Write(payload); err != nil {
		return nil, errors.Wrapf(err, "write %s command", method)
	}

	timeout := time.After(commandTimeout)
	for {
		select {
		case result, ok := <-d.results:
			if !ok {
				return nil, errors.Errorf("connection closed during %s", method)
			}
			if result.ID != cmd.ID {
				// Reply to an earlier command that already timed out.
				continue
			}
			if result.Error != nil {
				return nil, errors.Wrapf(result.Error, "%s %v", cmd.Method, cmd.Params)
			}
			if len(result.Result) == 1 && result.Result[0] == "ok" {
				return nil, nil
			}

			return result.Result, nil
		case <-timeout:
			return nil, errors.Errorf("%s command timed out", method)
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err())
		}
	}
}

// read is the connection reader: it routes command replies to the
// in-flight command and decodes props notifications into events. It runs
// until the connection closes.
func (d *Device) read() {
	defer close(d.events)
	defer close(d.results)

	scanner := bufio.NewScanner(d.conn)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		d.logger.Debug("received message", slog.String("payload", line))

		switch {
		case strings.HasPrefix(line, `{"id":`):
			var result commandResult
			if err := json.Unmarshal([]byte(line), &result); err != nil {
				d.logger.Error("unmarshal command result", slog.String("json", line), slog.Any("error", err))
				continue
			}

			select {
			case d.results <- result:
			default:
				// No command is waiting for this reply anymore.
			}

		case strings.HasPrefix(line, `{"method":`):
			var n notification
			if err := json.Unmarshal([]byte(line), &n); err != nil {
				d.logger.Error("unmarshal notification", slog.String("json", line), slog.Any("error", err))
				continue
			}
			if n.Method != "props" {
				continue
			}

			d.colorMu.Lock()
			events, state := decodeProps(n.Params, d.color)
			d.color = state
			d.colorMu.Unlock()

			for _, event := range events {
				select {
				case d.events <- event:
				default:
					d.logger.Warn("event dropped, consumer too slow", slog.Any("event", event))
				}
			}
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		d.logger.Error("connection read failed", slog.Any("error", err))
	}
}

func withDefaultPort(address string) string {
	if _, _, err := net.SplitHostPort(address); err == nil {
		return address
	}

	return net.JoinHostPort(address, strconv.Itoa(DefaultPort))
}
