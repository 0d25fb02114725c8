// Package oui resolves hardware address vendor prefixes to manufacturer
// names. The table is a small curated subset of the IEEE OUI registry
// covering vendors relevant to access point classification; it is not a
// complete registry.
package oui

import "strings"

// prefixes maps the first three octets of a hardware address to the
// registered manufacturer.
var prefixes = map[string]string{
	// Enterprise infrastructure
	"00:00:0C": "Cisco Systems",
	"00:1B:54": "Cisco Systems",
	"00:1A:1E": "Aruba Networks",
	"94:B4:0F": "Aruba Networks",
	"00:05:85": "Juniper Networks",
	"00:04:96": "Extreme Networks",
	"00:09:0F": "Fortinet",
	"58:93:96": "Ruckus Wireless",

	// Consumer routers
	"00:09:5B": "Netgear",
	"28:C6:8E": "Netgear",
	"00:14:BF": "Linksys",
	"48:F8:B3": "Linksys",
	"50:C7:BF": "TP-Link Technologies",
	"14:CC:20": "TP-Link Technologies",
	"00:26:5A": "D-Link",
	"94:10:3E": "Belkin International",
	"04:D9:F5": "ASUSTek Computer",

	// Mobile devices
	"00:03:93": "Apple",
	"F0:18:98": "Apple",
	"AC:BC:32": "Apple",
	"5C:0A:5B": "Samsung Electronics",
	"34:23:BA": "Samsung Electronics",
	"3C:5A:B4": "Google",
	"F4:F5:D8": "Google",
	"00:E0:FC": "Huawei Technologies",
	"F8:A4:5F": "Xiaomi Communications",

	// IoT devices
	"18:B4:30": "Nest Labs",
	"44:61:32": "Ecobee",
	"2C:AA:8E": "Wyze Labs",
	"00:0E:58": "Sonos",
	"D8:31:34": "Roku",
	"44:65:0D": "Amazon Technologies",
}

// Lookup returns the manufacturer registered for the address's vendor
// prefix. The second return value is false when the prefix is not in the
// table or the address is too short to carry one.
func Lookup(addr string) (string, bool) {
	if len(addr) < 8 {
		return "", false
	}
	name, ok := prefixes[strings.ToUpper(addr[:8])]
	return name, ok
}
