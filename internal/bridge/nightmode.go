package bridge

import (
	"log/slog"
	"time"

	"github.com/crazy3lf/colorconv"
	"github.com/cybre/yeelight-bridge/internal/utils"
)

// nightColor is the warm amber the night mode scene renders at minimum
// brightness.
const nightColor = 0xFF9900

// setNightMode handles the companion switch. The switch is momentary:
// turning it on applies the scene and the switch springs back off
// shortly after, turning it off does nothing.
func (l *Light) setNightMode(on bool) {
	if !on {
		return
	}

	defer time.AfterFunc(l.rearmDelay, func() {
		l.nightSwitch.Switch.On.SetValue(false)
	})

	if l.conn == nil {
		l.logger.Error("device unreachable, dropping night mode request")
		return
	}

	// set_scene applies color and brightness atomically and powers the
	// bulb on even when it is off.
	if _, err := l.conn.Call(l.ctx, "set_scene", "color", nightColor, 1); err != nil {
		l.logger.Error("apply night mode scene", slog.Any("error", err))
		return
	}

	bulb := l.accessory.Bulb

	bulb.On.SetValue(true)
	l.stamp(kindPower)

	if bulb.Brightness != nil {
		bulb.Brightness.SetValue(1)
		l.stamp(kindBrightness)
	}

	if bulb.Hue != nil {
		hue, sat, _ := colorconv.RGBToHSL(utils.IntToRGB(nightColor))

		bulb.Hue.SetValue(hue)
		bulb.Saturation.SetValue(sat * 100)

		l.mu.Lock()
		l.hue = hue
		l.saturation = sat * 100
		l.mu.Unlock()

		l.stamp(kindColor)
	}

	l.logger.Info("night mode applied")
}
