package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"time"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

const (
	dpi      = 120.0
	fontSize = 10.0

	plotWidth  = 800
	plotHeight = 300

	tickMarkWidth = 5

	// Default border sizes in pixels
	defaultTopBorder    = 40
	defaultLeftBorder   = 80
	defaultBottomBorder = 50
	defaultRightBorder  = 40

	// Fixed Y axis range in dBm; everything interesting lives here.
	chartMinDBM = -100.0
	chartMaxDBM = -30.0

	defaultTimeFormat = "15:04:05"
)

// Signal quality zone boundaries in dBm.
var qualityZones = []struct {
	Floor float64
	Label string
	Fill  color.RGBA
}{
	{-50, "Excellent", color.RGBA{R: 0xE2, G: 0xF4, B: 0xE2, A: 0xFF}},
	{-60, "Good", color.RGBA{R: 0xF0, G: 0xF7, B: 0xE2, A: 0xFF}},
	{-70, "Fair", color.RGBA{R: 0xFB, G: 0xF3, B: 0xDC, A: 0xFF}},
	{chartMinDBM, "Poor", color.RGBA{R: 0xFA, G: 0xE3, B: 0xDE, A: 0xFF}},
}

var (
	signalColor  = color.RGBA{R: 0x1F, G: 0x4E, B: 0x99, A: 0xFF}
	averageColor = color.RGBA{R: 0x99, G: 0x1F, B: 0x1F, A: 0xFF}
	gridColor    = color.RGBA{R: 0xC0, G: 0xC0, B: 0xC0, A: 0xFF}
)

// chartConfig holds the configuration options for signal trend charts.
type chartConfig struct {
	TimeFormat string         // Format string for time axis labels
	Location   *time.Location // Timezone for time display
	FontSize   float64        // Font size in points
}

// chartRenderer draws a station's signal history as a line chart over
// colored quality zones.
type chartRenderer struct {
	context  *freetype.Context
	config   chartConfig
	fontFace font.Face
}

func newChartRenderer(config chartConfig) (*chartRenderer, error) {
	if config.TimeFormat == "" {
		config.TimeFormat = defaultTimeFormat
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}

	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &chartRenderer{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (r *chartRenderer) Close() error {
	if r.fontFace != nil {
		return r.fontFace.Close()
	}
	return nil
}

// Render creates an image of the station's signal history with axis
// scales, quality zones and a summary bar.
func (r *chartRenderer) Render(station *reportStation) (*image.RGBA, error) {
	fullWidth := plotWidth + defaultLeftBorder + defaultRightBorder
	fullHeight := plotHeight + defaultTopBorder + defaultBottomBorder
	img := image.NewRGBA(image.Rect(0, 0, fullWidth, fullHeight))

	// Fill with white background
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	plotArea := image.Rect(
		defaultLeftBorder,
		defaultTopBorder,
		defaultLeftBorder+plotWidth,
		defaultTopBorder+plotHeight,
	)

	r.drawQualityZones(img, plotArea)
	r.drawSignalLine(img, plotArea, station)
	r.drawAverageLine(img, plotArea, station.Analysis.Mean)

	r.context.SetClip(img.Bounds())
	r.context.SetDst(img)

	if err := r.drawTitle(img, station); err != nil {
		return nil, fmt.Errorf("drawing title: %w", err)
	}
	if err := r.drawSignalScale(img, plotArea); err != nil {
		return nil, fmt.Errorf("drawing signal scale: %w", err)
	}
	if err := r.drawTimeScale(img, plotArea, station); err != nil {
		return nil, fmt.Errorf("drawing time scale: %w", err)
	}
	if err := r.drawInfoBar(img, station); err != nil {
		return nil, fmt.Errorf("drawing info bar: %w", err)
	}

	return img, nil
}

// signalToY converts a dBm value to a plot area Y coordinate, clamping to
// the fixed chart range.
func signalToY(area image.Rectangle, signal float64) int {
	if signal > chartMaxDBM {
		signal = chartMaxDBM
	}
	if signal < chartMinDBM {
		signal = chartMinDBM
	}
	ratio := (chartMaxDBM - signal) / (chartMaxDBM - chartMinDBM)
	return area.Min.Y + int(ratio*float64(area.Dy()))
}

func (r *chartRenderer) drawQualityZones(img *image.RGBA, area image.Rectangle) {
	ceiling := chartMaxDBM
	for _, zone := range qualityZones {
		top := signalToY(area, ceiling)
		bottom := signalToY(area, zone.Floor)
		draw.Draw(img, image.Rect(area.Min.X, top, area.Max.X, bottom), &image.Uniform{C: zone.Fill}, image.Point{}, draw.Src)
		ceiling = zone.Floor
	}
}

func (r *chartRenderer) drawSignalLine(img *image.RGBA, area image.Rectangle, station *reportStation) {
	samples := station.Samples
	if len(samples) < 2 {
		return
	}

	step := float64(area.Dx()) / float64(len(samples)-1)
	prevX := area.Min.X
	prevY := signalToY(area, float64(samples[0].SignalDBM))

	for i := 1; i < len(samples); i++ {
		x := area.Min.X + int(float64(i)*step)
		y := signalToY(area, float64(samples[i].SignalDBM))
		drawLine(img, prevX, prevY, x, y, signalColor)
		prevX, prevY = x, y
	}
}

func (r *chartRenderer) drawAverageLine(img *image.RGBA, area image.Rectangle, mean float64) {
	y := signalToY(area, mean)
	for x := area.Min.X; x < area.Max.X; x += 6 {
		for dx := 0; dx < 3 && x+dx < area.Max.X; dx++ {
			img.Set(x+dx, y, averageColor)
		}
	}
}

func (r *chartRenderer) drawTitle(img *image.RGBA, station *reportStation) error {
	title := fmt.Sprintf("%s (%s)", station.SSID, station.ID)

	metrics := r.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()
	textY := defaultTopBorder - fontHeight/2

	pt := freetype.Pt(defaultLeftBorder, textY)
	if _, err := r.context.DrawString(title, pt); err != nil {
		return fmt.Errorf("drawing title text: %w", err)
	}
	return nil
}

func (r *chartRenderer) drawSignalScale(img *image.RGBA, area image.Rectangle) error {
	metrics := r.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	for level := chartMaxDBM; level >= chartMinDBM; level -= 10 {
		y := signalToY(area, level)

		// Grid line across the plot, tick mark in the border
		for x := area.Min.X; x < area.Max.X; x += 2 {
			img.Set(x, y, gridColor)
		}
		for x := area.Min.X - tickMarkWidth; x < area.Min.X; x++ {
			img.Set(x, y, color.Black)
		}

		label := fmt.Sprintf("%.0f dBm", level)
		textY := y + fontHeight/2 - metrics.Descent.Round()
		pt := freetype.Pt(10, textY)
		if _, err := r.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing signal label: %w", err)
		}
	}
	return nil
}

func (r *chartRenderer) drawTimeScale(img *image.RGBA, area image.Rectangle, station *reportStation) error {
	samples := station.Samples
	if len(samples) == 0 {
		return nil
	}

	metrics := r.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()
	textY := area.Max.Y + fontHeight

	edges := []struct {
		x     int
		when  time.Time
		align float64 // 0 left-aligned, 1 right-aligned
	}{
		{area.Min.X, samples[0].Timestamp, 0},
		{area.Max.X, samples[len(samples)-1].Timestamp, 1},
	}

	for _, edge := range edges {
		for y := area.Max.Y; y < area.Max.Y+tickMarkWidth; y++ {
			img.Set(edge.x, y, color.Black)
		}

		label := edge.when.In(r.config.Location).Format(r.config.TimeFormat)
		width := font.MeasureString(r.fontFace, label)
		pt := freetype.Pt(edge.x-int(edge.align*float64(width.Round())), textY)
		if _, err := r.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing time label: %w", err)
		}
	}
	return nil
}

func (r *chartRenderer) drawInfoBar(img *image.RGBA, station *reportStation) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Avg: %.1f dBm", station.Analysis.Mean))
	sb.WriteString(fmt.Sprintf("; StdDev: %.2f", station.Analysis.StdDev))
	sb.WriteString(fmt.Sprintf("; Range: %d..%d dBm", station.Analysis.Min, station.Analysis.Max))
	sb.WriteString(fmt.Sprintf("; %s", station.Analysis.Stability))
	sb.WriteString(fmt.Sprintf("; Trend: %s", station.Analysis.Trend))

	metrics := r.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()
	textY := img.Bounds().Max.Y - (defaultBottomBorder-fontHeight)/2 + metrics.Descent.Round()

	pt := freetype.Pt(defaultLeftBorder, textY)
	if _, err := r.context.DrawString(sb.String(), pt); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}
	return nil
}

// drawLine draws a straight segment using integer interpolation.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	dx := x1 - x0
	dy := y1 - y0

	steps := absInt(dx)
	if absInt(dy) > steps {
		steps = absInt(dy)
	}
	if steps == 0 {
		img.Set(x0, y0, c)
		return
	}

	for i := 0; i <= steps; i++ {
		img.Set(x0+dx*i/steps, y0+dy*i/steps, c)
	}
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
