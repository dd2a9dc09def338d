package bridge

import (
	"context"
	"log/slog"
	"time"

	"github.com/cybre/yeelight-bridge/internal/yeelight"
)

// suppressWindow is how long a device notification is ignored after a
// platform-initiated change of the same kind. Commands echo back as
// notifications and must not be replayed into the characteristics.
const suppressWindow = 500 * time.Millisecond

type eventKind int

const (
	kindPower eventKind = iota
	kindBrightness
	kindColor
	kindMode
	kindMoonBrightness
)

func (l *Light) stamp(kind eventKind) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.suppress[kind] = l.now().Add(suppressWindow)
}

func (l *Light) suppressed(kind eventKind) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.now().Before(l.suppress[kind])
}

// Run pumps device notifications into the characteristics until the
// context ends or the device connection closes. External changes (the
// vendor app, a wall switch cutting power) surface in the platform this
// way.
func (l *Light) Run(ctx context.Context) {
	if l.conn == nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-l.conn.Events():
			if !ok {
				l.logger.Info("device connection closed, stopping event pump")
				return
			}

			if l.applyDeviceEvent(ev) {
				l.logger.Debug("applied device event", slog.Any("event", ev))
			}
		}
	}
}

// applyDeviceEvent reflects a single notification into the accessory.
// It reports whether anything changed: events for missing services,
// echoes of recent local commands and values already current are all
// dropped.
func (l *Light) applyDeviceEvent(ev yeelight.Event) bool {
	bulb := l.accessory.Bulb

	switch e := ev.(type) {
	case yeelight.PowerChanged:
		if l.suppressed(kindPower) || bulb.On.Value() == e.On {
			return false
		}

		bulb.On.SetValue(e.On)
		return true

	case yeelight.BrightnessChanged:
		if bulb.Brightness == nil {
			return false
		}
		if l.suppressed(kindBrightness) || bulb.Brightness.Value() == e.Brightness {
			return false
		}

		bulb.Brightness.SetValue(e.Brightness)
		return true

	case yeelight.ColorChanged:
		return l.applyColorChange(e)

	case yeelight.ModeChanged:
		if l.accessory.Moonlight == nil {
			return false
		}
		if l.suppressed(kindMode) || l.accessory.Moonlight.On.Value() == e.Moonlight {
			return false
		}

		l.accessory.Moonlight.On.SetValue(e.Moonlight)
		return true

	case yeelight.MoonlightBrightnessChanged:
		if l.accessory.Moonlight == nil || e.Brightness < 1 {
			return false
		}
		if l.suppressed(kindMoonBrightness) || l.accessory.Moonlight.Brightness.Value() == e.Brightness {
			return false
		}

		l.accessory.Moonlight.Brightness.SetValue(e.Brightness)
		return true
	}

	return false
}

func (l *Light) applyColorChange(e yeelight.ColorChanged) bool {
	bulb := l.accessory.Bulb

	switch e.Mode {
	case yeelight.ColorModeTemperature:
		if bulb.ColorTemperature == nil || e.Kelvin <= 0 {
			return false
		}

		mired := clampMired(kelvinToMired(e.Kelvin))
		if l.suppressed(kindColor) || bulb.ColorTemperature.Value() == mired {
			return false
		}

		bulb.ColorTemperature.SetValue(mired)
		return true

	case yeelight.ColorModeHSV, yeelight.ColorModeRGB:
		if bulb.Hue == nil {
			return false
		}
		if l.suppressed(kindColor) {
			return false
		}
		if bulb.Hue.Value() == e.Hue && bulb.Saturation.Value() == e.Saturation {
			return false
		}

		bulb.Hue.SetValue(e.Hue)
		bulb.Saturation.SetValue(e.Saturation)

		l.mu.Lock()
		l.hue = e.Hue
		l.saturation = e.Saturation
		l.mu.Unlock()

		return true
	}

	// Unknown color modes come from models this adapter does not know;
	// dropping them keeps the characteristics consistent.
	return false
}
