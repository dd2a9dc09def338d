// Package utils holds small helpers shared by the device client and the
// bridge: packed-RGB encoding as the Yeelight protocol expects it.
package utils

// RGBToInt packs the three channels into the 0xRRGGBB integer form used by
// set_rgb, set_scene and color-flow expressions.
func RGBToInt(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// IntToRGB splits a packed 0xRRGGBB value back into channels.
func IntToRGB(rgb uint32) (uint8, uint8, uint8) {
	return uint8(rgb >> 16 & 0xFF), uint8(rgb >> 8 & 0xFF), uint8(rgb & 0xFF)
}
