package homekit

import "github.com/google/uuid"

// DeviceSerial derives a stable serial number from a device identity,
// usually its address. Paired controllers key accessory metadata on the
// serial, so it must not change between runs.
func DeviceSerial(identity string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("yeelight://"+identity)).String()
}
