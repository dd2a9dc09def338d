package bridge

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/crazy3lf/colorconv"
	"github.com/cybre/yeelight-bridge/internal/utils"
	"github.com/cybre/yeelight-bridge/internal/yeelight"
)

const (
	flowStepMillis = 1000
	flowBrightness = 100
)

// flowPalette cycles the full hue wheel in eight steps.
var flowPalette = makeFlowPalette()

func makeFlowPalette() []uint32 {
	colors := make([]uint32, 0, 8)
	for hue := 0.0; hue < 360; hue += 45 {
		// Inputs are fixed and in range, conversion cannot fail.
		r, g, b, _ := colorconv.HSVToRGB(hue, 1, 1)
		colors = append(colors, utils.RGBToInt(r, g, b))
	}

	return colors
}

// flowExpression renders the palette as a flow expression: comma-joined
// tuples of duration, mode 1 (color), packed RGB and brightness.
func flowExpression(colors []uint32, stepMillis, brightness int) string {
	states := make([]string, 0, len(colors))
	for _, c := range colors {
		states = append(states, fmt.Sprintf("%d,1,%d,%d", stepMillis, c, brightness))
	}

	return strings.Join(states, ",")
}

// toggleColorFlow flips the bulb between a looping color flow and its
// previous state. The switch mirrors the flow state reported by the
// device rather than trusting the platform-side value.
func (l *Light) toggleColorFlow() {
	flowSwitch := l.accessory.FlowSwitch

	props, err := l.readProps(yeelight.PropFlowing)
	if err != nil {
		flowSwitch.On.SetValue(false)
		return
	}

	if props[yeelight.PropFlowing] == "1" {
		if _, err := l.conn.Call(l.ctx, "stop_cf"); err != nil {
			l.logger.Error("stop color flow", slog.Any("error", err))
			return
		}

		flowSwitch.On.SetValue(false)
		l.logger.Info("color flow stopped")
		return
	}

	expression := flowExpression(flowPalette, flowStepMillis, flowBrightness)
	if _, err := l.conn.Call(l.ctx, "set_scene", "cf", 0, 0, expression); err != nil {
		l.logger.Error("start color flow", slog.Any("error", err))
		flowSwitch.On.SetValue(false)
		return
	}

	flowSwitch.On.SetValue(true)
	l.logger.Info("color flow started")
}
