package yeelight

import (
	"strings"
	"testing"
)

func TestParseAdvertisement(t *testing.T) {
	payload := strings.Join([]string{
		"HTTP/1.1 200 OK",
		"Cache-Control: max-age=3600",
		"Location: yeelight://192.168.1.239:55443",
		"Server: POSIX UPnP/1.0 YGLC/1",
		"id: 0x000000000015243f",
		"model: color",
		"fw_ver: 18",
		"support: get_prop set_power set_bright set_ct_abx set_rgb set_hsv set_scene start_cf stop_cf",
		"power: on",
		"bright: 100",
		"name: desk",
	}, "\r\n")

	ad, ok := parseAdvertisement(payload)
	if !ok {
		t.Fatal("parseAdvertisement() should succeed")
	}

	if ad.Address != "192.168.1.239:55443" {
		t.Errorf("Address = %q", ad.Address)
	}
	if ad.ID != "0x000000000015243f" {
		t.Errorf("ID = %q", ad.ID)
	}
	if ad.Model != "color" {
		t.Errorf("Model = %q", ad.Model)
	}
	if ad.FirmwareVersion != "18" {
		t.Errorf("FirmwareVersion = %q", ad.FirmwareVersion)
	}
	if ad.Power != "on" {
		t.Errorf("Power = %q", ad.Power)
	}
	if ad.Name != "desk" {
		t.Errorf("Name = %q", ad.Name)
	}
	if len(ad.Support) != 9 || ad.Support[0] != "get_prop" {
		t.Errorf("Support = %v", ad.Support)
	}
}

func TestParseAdvertisement_NotABulb(t *testing.T) {
	payload := strings.Join([]string{
		"HTTP/1.1 200 OK",
		"Location: http://192.168.1.1:80/description.xml",
		"Server: some other upnp device",
	}, "\r\n")

	ad, ok := parseAdvertisement(payload)
	if ok {
		t.Errorf("parseAdvertisement() = %+v, should reject non-yeelight responses", ad)
	}
}
