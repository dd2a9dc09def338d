package yeelight

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/cybre/yeelight-bridge/internal/errors"
)

const (
	ssdpAddress = "239.255.255.250:1982"
	discoverMSG = "M-SEARCH * HTTP/1.1\r\n HOST:239.255.255.250:1982\r\n MAN:\"ssdp:discover\"\r\n ST:wifi_bulb\r\n"
)

// Advertisement is a bulb's SSDP discovery response.
type Advertisement struct {
	Address         string
	ID              string
	Name            string
	Model           string
	FirmwareVersion string
	Power           string
	Support         []string
}

// Discover multicasts an SSDP search and collects responses until the
// listen window closes. Bulbs answering more than once are reported once.
func Discover(ctx context.Context) ([]Advertisement, error) {
	udpAddr, err := net.ResolveUDPAddr("udp4", ssdpAddress)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve SSDP address")
	}

	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, errors.Wrapf(err, "open SSDP listener")
	}
	defer conn.Close()

	if _, err := conn.WriteToUDP([]byte(discoverMSG), udpAddr); err != nil {
		return nil, errors.Wrapf(err, "send discover message")
	}

	deadline := time.Now().Add(commandTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, errors.Wrapf(err, "set read deadline")
	}

	var found []Advertisement
	seen := make(map[string]bool)
	buf := make([]byte, 2048)

	for {
		if err := ctx.Err(); err != nil {
			return found, errors.Wrap(err)
		}

		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return found, nil
			}

			return found, errors.Wrapf(err, "read SSDP response")
		}

		ad, ok := parseAdvertisement(string(buf[:n]))
		if !ok || seen[ad.ID] {
			continue
		}

		seen[ad.ID] = true
		found = append(found, ad)
	}
}

// parseAdvertisement extracts the bulb headers from one SSDP response.
// Responses without a yeelight location are not advertisements.
func parseAdvertisement(payload string) (Advertisement, bool) {
	var ad Advertisement

	for _, line := range strings.Split(payload, lineEnding) {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}

		switch strings.ToLower(key) {
		case "location":
			if strings.HasPrefix(value, "yeelight://") {
				ad.Address = strings.TrimPrefix(value, "yeelight://")
			}
		case "id":
			ad.ID = value
		case "name":
			ad.Name = value
		case "model":
			ad.Model = value
		case "fw_ver":
			ad.FirmwareVersion = value
		case "power":
			ad.Power = value
		case "support":
			ad.Support = strings.Split(value, " ")
		}
	}

	if ad.Address == "" {
		return Advertisement{}, false
	}

	return ad, true
}
