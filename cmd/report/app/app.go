package app

import (
	"context"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/roman-kulish/wifi-surveillance/internal/analysis"
	"github.com/roman-kulish/wifi-surveillance/internal/storage"
	"github.com/roman-kulish/wifi-surveillance/internal/wifi"
)

const chartsDir = "charts"

// reportStation pairs a persisted station record with its signal
// stability analysis.
type reportStation struct {
	wifi.Station
	Analysis analysis.Report `json:"analysis"`
}

// sessionReport is the JSON shape written to the output directory.
type sessionReport struct {
	SessionID      int64                `json:"sessionID"`
	SessionStart   time.Time            `json:"sessionStart"`
	SessionEnd     *time.Time           `json:"sessionEnd,omitempty"`
	Interface      string               `json:"interface"`
	Driver         string               `json:"driver"`
	TotalStations  int                  `json:"totalStations"`
	HiddenStations int                  `json:"hiddenStations"`
	Distribution   map[wifi.Category]int `json:"distribution"`
	Stations       []reportStation      `json:"stations"`
}

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	sessionID := config.SessionID
	if sessionID <= 0 {
		var err error
		if sessionID, err = latestSession(ctx, store); err != nil {
			return err
		}
	}

	report, err := buildReport(ctx, store, sessionID, config)
	if err != nil {
		return err
	}

	logger.Info("session loaded",
		slog.Int64("sessionID", report.SessionID),
		slog.Int("stations", report.TotalStations),
		slog.Int("hidden", report.HiddenStations))

	if err = os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	reportPath := filepath.Join(config.OutputDir, fmt.Sprintf("session_%d.json", report.SessionID))
	if err = writeJSON(reportPath, report); err != nil {
		return err
	}
	logger.Info("report written", slog.String("destination", reportPath))

	printSummary(report)

	if config.NoCharts {
		return nil
	}
	return renderCharts(report, config, logger)
}

func latestSession(ctx context.Context, store *storage.SqliteStore) (int64, error) {
	sessions, err := store.Sessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing sessions: %w", err)
	}
	if len(sessions) == 0 {
		return 0, fmt.Errorf("database contains no sessions")
	}
	return sessions[len(sessions)-1].ID, nil
}

func buildReport(ctx context.Context, store *storage.SqliteStore, sessionID int64, config *Config) (*sessionReport, error) {
	var opts []storage.ReaderOption
	if config.Category != nil {
		opts = append(opts, storage.WithCategory(*config.Category))
	}
	if config.HiddenOnly {
		opts = append(opts, storage.WithHiddenOnly())
	}
	if config.MinConfidence != nil {
		opts = append(opts, storage.WithMinConfidence(*config.MinConfidence))
	}

	reader, err := store.ReadStations(ctx, sessionID, opts...)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	sess := reader.Session()
	report := sessionReport{
		SessionID:    sess.ID,
		SessionStart: sess.StartTime,
		SessionEnd:   sess.EndTime,
		Interface:    sess.Interface,
		Driver:       sess.Driver,
		Distribution: make(map[wifi.Category]int, len(wifi.Categories)),
	}

	for reader.Next(ctx) {
		station := *reader.Current()

		if station.Samples, err = store.Observations(ctx, sessionID, station.ID); err != nil {
			return nil, fmt.Errorf("loading observations for %s: %w", station.ID, err)
		}

		report.Stations = append(report.Stations, reportStation{
			Station:  station,
			Analysis: analysis.Analyze(station.Samples),
		})

		if station.Concealed {
			report.HiddenStations++
		}
		if station.Classification != nil {
			report.Distribution[station.Classification.Category]++
		}
	}
	if err = reader.Error(); err != nil {
		return nil, err
	}

	report.TotalStations = len(report.Stations)
	return &report, nil
}

func writeJSON(path string, report *sessionReport) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer func() {
		if cErr := out.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err = enc.Encode(report); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return
}

func printSummary(report *sessionReport) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	end := "running"
	if report.SessionEnd != nil {
		end = humanize.Time(*report.SessionEnd)
	}
	t.SetTitle(fmt.Sprintf("Session %d on %s (%s), started %s, ended %s",
		report.SessionID, report.Interface, report.Driver,
		humanize.Time(report.SessionStart), end))

	t.AppendHeader(table.Row{"SSID", "BSSID", "CH", "Cipher", "Signal", "Vendor", "Category", "Conf", "Stability", "Last Seen"})

	for _, station := range report.Stations {
		ssid := station.SSID
		if station.Concealed {
			ssid = text.FgYellow.Sprint(ssid)
		}

		category, confidence := "", ""
		if station.Classification != nil {
			category = string(station.Classification.Category)
			confidence = fmt.Sprintf("%.1f", station.Classification.Confidence)
		}

		t.AppendRow(table.Row{
			ssid,
			station.ID,
			station.Channel,
			station.Cipher,
			fmt.Sprintf("%d dBm", station.SignalDBM),
			station.Manufacturer,
			category,
			confidence,
			station.Analysis.Stability,
			humanize.Time(station.LastSeen),
		})
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("%d stations", report.TotalStations), "", "", "", "", "",
		fmt.Sprintf("%d hidden", report.HiddenStations), "", "", "",
	})
	t.Render()
}

func renderCharts(report *sessionReport, config *Config, logger *slog.Logger) error {
	dir := filepath.Join(config.OutputDir, chartsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating charts directory: %w", err)
	}

	renderer, err := newChartRenderer(chartConfig{})
	if err != nil {
		return fmt.Errorf("creating chart renderer: %w", err)
	}
	defer renderer.Close()

	var rendered int
	for _, station := range report.Stations {
		if station.Analysis.Samples < analysis.MinSamples {
			continue
		}

		img, err := renderer.Render(&station)
		if err != nil {
			return fmt.Errorf("rendering chart for %s: %w", station.ID, err)
		}

		name := fmt.Sprintf("%s.%s", strings.ReplaceAll(station.ID, ":", ""), config.Format)
		out, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return err
		}

		switch config.Format {
		case ImagePNG:
			err = png.Encode(out, img)
		case ImageJPEG:
			err = jpeg.Encode(out, img, &jpeg.Options{Quality: 98})
		}
		if cErr := out.Close(); cErr != nil && err == nil {
			err = cErr
		}
		if err != nil {
			return err
		}
		rendered++
	}

	logger.Info("charts rendered", slog.Int("count", rendered), slog.String("destination", dir))
	return nil
}
