package app

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/roman-kulish/wifi-surveillance/internal/wifi"
)

const (
	ImagePNG  = "png"
	ImageJPEG = "jpeg"
)

type ImageFormat string

type Config struct {
	DBPath        string
	SessionID     int64 // 0 selects the most recent session
	OutputDir     string
	Format        ImageFormat
	Category      *wifi.Category
	HiddenOnly    bool
	MinConfidence *float64
	NoCharts      bool
}

var validImageFormats = map[ImageFormat]struct{}{
	ImagePNG:  {},
	ImageJPEG: {},
}

func NewConfig() *Config {
	return &Config{
		Format:    ImagePNG,
		OutputDir: ".",
	}
}

func NewConfigFromCLI() (*Config, error) {
	c := NewConfig()

	var imageFormat, category string
	var minConfidence float64
	flag.StringVar(&c.DBPath, "db", "", "Path to the database file")
	flag.Int64Var(&c.SessionID, "s", 0, "Session ID (default: most recent session)")
	flag.StringVar(&c.OutputDir, "o", ".", "Output directory for the report and charts")
	flag.StringVar(&imageFormat, "f", string(ImagePNG), "Chart image format. [png, jpeg]")
	flag.StringVar(&category, "category", "", "Only include stations of this category")
	flag.BoolVar(&c.HiddenOnly, "hidden-only", false, "Only include stations that stayed hidden")
	flag.Float64Var(&minConfidence, "min-confidence", 0, "Only include stations at or above this classification confidence")
	flag.BoolVar(&c.NoCharts, "no-charts", false, "Skip signal trend chart rendering")
	flag.Parse()

	imageFormat = strings.ToLower(imageFormat)

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "min-confidence" {
			c.MinConfidence = &minConfidence
		}
	})

	var err error
	if c.DBPath == "" {
		err = errors.New("db path is required")
	} else if _, ok := validImageFormats[ImageFormat(imageFormat)]; !ok {
		err = fmt.Errorf("invalid image format: %s", imageFormat)
	} else if category != "" {
		match := wifi.Category(strings.ToUpper(category))
		for _, known := range wifi.Categories {
			if match == known {
				c.Category = &match
				break
			}
		}
		if c.Category == nil {
			err = fmt.Errorf("invalid category: %s", category)
		}
	}

	if err != nil {
		flag.Usage()
		return nil, err
	}

	c.Format = ImageFormat(imageFormat)
	return c, nil
}
