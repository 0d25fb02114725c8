package tcpdump

import (
	"fmt"
	"strconv"
)

// captureFilter keeps only beacons and probe responses.
const captureFilter = "type mgt and (subtype beacon or subtype probe-resp)"

// Config is the `tcpdump` tool configuration
type Config struct {
	Interface string `yaml:"interface" json:"interface"` // -i capture interface

	// Monitor enables 802.11 monitor mode (-I).
	Monitor bool `yaml:"monitor" json:"monitor"`

	SnapLength   int `yaml:"snapLength" json:"snapLength"`     // -s snapshot length (default: full frame)
	BufferSizeKB int `yaml:"bufferSizeKB" json:"bufferSizeKB"` // -B kernel buffer size
}

func (c *Config) Validate() error {
	if c.Interface == "" {
		return fmt.Errorf("tcpdump.Config: interface must not be empty")
	}
	if c.SnapLength < 0 {
		return fmt.Errorf("tcpdump.Config: snap length must not be negative: %d", c.SnapLength)
	}
	if c.BufferSizeKB < 0 {
		return fmt.Errorf("tcpdump.Config: buffer size must not be negative: %d", c.BufferSizeKB)
	}
	return nil
}

// Args returns the command line arguments for `tcpdump`
func (c *Config) Args() ([]string, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	args := []string{"-i", c.Interface}

	if c.Monitor {
		args = append(args, "-I")
	}

	if c.SnapLength > 0 {
		args = append(args, "-s", strconv.Itoa(c.SnapLength))
	}

	if c.BufferSizeKB > 0 {
		args = append(args, "-B", strconv.Itoa(c.BufferSizeKB))
	}

	// Line-buffered, link-level headers, numeric output, epoch timestamps.
	args = append(args, "-l", "-e", "-n", "-tt", captureFilter)

	return args, nil
}
