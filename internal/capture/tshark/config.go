package tshark

import (
	"fmt"
	"strconv"
)

// Fields requested from tshark, in output column order. Parse depends on
// this ordering.
var fields = []string{
	"frame.time_epoch",
	"wlan.fc.type_subtype",
	"wlan.bssid",
	"wlan.ssid",
	"wlan_radio.channel",
	"wlan_radio.signal_dbm",
	"wlan.rsn.akms.type",
	"wlan.fixed.capabilities.privacy",
}

// displayFilter keeps only the two management frame subtypes the engine
// consumes: beacons and probe responses.
const displayFilter = "wlan.fc.type_subtype == 0x0008 || wlan.fc.type_subtype == 0x0005"

// Config is the `tshark` tool configuration
type Config struct {
	Interface string `yaml:"interface" json:"interface"` // -i capture interface

	// Monitor enables 802.11 monitor mode (-I). Without it most drivers
	// deliver no management frames at all.
	Monitor bool `yaml:"monitor" json:"monitor"`

	BufferSizeMB  int    `yaml:"bufferSizeMB" json:"bufferSizeMB"`   // -B kernel buffer size (default: 2 MB)
	CaptureFilter string `yaml:"captureFilter" json:"captureFilter"` // -f additional BPF capture filter
}

func (c *Config) Validate() error {
	if c.Interface == "" {
		return fmt.Errorf("tshark.Config: interface must not be empty")
	}
	if c.BufferSizeMB < 0 {
		return fmt.Errorf("tshark.Config: buffer size must not be negative: %d", c.BufferSizeMB)
	}
	return nil
}

// Args returns the command line arguments for `tshark`
func (c *Config) Args() ([]string, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	args := []string{"-i", c.Interface}

	if c.Monitor {
		args = append(args, "-I")
	}

	if c.BufferSizeMB > 0 {
		args = append(args, "-B", strconv.Itoa(c.BufferSizeMB))
	}

	if c.CaptureFilter != "" {
		args = append(args, "-f", c.CaptureFilter)
	}

	// Line-buffered field output, one frame per line. Multi-valued fields
	// (cipher suites) are aggregated with commas.
	args = append(args,
		"-l", "-Q",
		"-Y", displayFilter,
		"-T", "fields",
		"-E", "separator=/t",
		"-E", "occurrence=a",
		"-E", "aggregator=,",
	)
	for _, field := range fields {
		args = append(args, "-e", field)
	}

	return args, nil
}
