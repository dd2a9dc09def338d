package yeelight

import (
	"strconv"
	"strings"

	"github.com/crazy3lf/colorconv"
	"github.com/cybre/yeelight-bridge/internal/errors"
	"github.com/cybre/yeelight-bridge/internal/utils"
)

// parseColorCommand maps a color expression to the protocol command that
// applies it. Three forms are understood:
//
//	"4000K"              color temperature in Kelvin  -> set_ct_abx
//	"hsl(230, 70%, 100%)" hue/saturation/lightness    -> set_hsv
//	"#ff9900"            RGB hex                      -> set_rgb
//
// set_hsv has no lightness channel, so the third hsl component is
// validated and discarded.
func parseColorCommand(value string) (string, []interface{}, error) {
	switch {
	case strings.HasSuffix(value, "K"):
		kelvin, err := strconv.Atoi(strings.TrimSuffix(value, "K"))
		if err != nil {
			return "", nil, errors.Wrapf(err, "parse color temperature %q", value)
		}
		if kelvin < 1700 || kelvin > 6500 {
			return "", nil, errors.Wrap(ErrKelvinInvalid)
		}

		return "set_ct_abx", []interface{}{kelvin}, nil

	case strings.HasPrefix(value, "hsl("):
		hue, saturation, err := parseHSL(value)
		if err != nil {
			return "", nil, err
		}

		return "set_hsv", []interface{}{hue, saturation}, nil

	case strings.HasPrefix(value, "#"):
		r, g, b, err := colorconv.HexToRGB(strings.TrimPrefix(value, "#"))
		if err != nil {
			return "", nil, errors.Wrapf(err, "parse hex color %q", value)
		}

		return "set_rgb", []interface{}{utils.RGBToInt(r, g, b)}, nil
	}

	return "", nil, errors.Errorf("unrecognized color value %q", value)
}

func parseHSL(value string) (int, int, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(value, "hsl("), ")")

	parts := strings.Split(inner, ",")
	if len(parts) != 3 {
		return 0, 0, errors.Errorf("malformed hsl color %q", value)
	}

	hue, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, errors.Wrapf(err, "parse hue in %q", value)
	}
	if hue < 0 || hue > 359 {
		return 0, 0, errors.Wrap(ErrHueInvalid)
	}

	saturation, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(parts[1]), "%"))
	if err != nil {
		return 0, 0, errors.Wrapf(err, "parse saturation in %q", value)
	}
	if saturation < 0 || saturation > 100 {
		return 0, 0, errors.Wrap(ErrSaturationInvalid)
	}

	if _, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(parts[2]), "%")); err != nil {
		return 0, 0, errors.Wrapf(err, "parse lightness in %q", value)
	}

	return hue, saturation, nil
}
