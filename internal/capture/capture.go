// Package capture runs an external packet capture tool as a child process
// and turns its line-oriented output into frame events. Concrete drivers
// live in subpackages; this package owns the process lifecycle.
package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/roman-kulish/wifi-surveillance/internal/wifi"
)

const (
	// ParseErrorsThreshold defines the number of consecutive parse errors allowed
	ParseErrorsThreshold = 5
)

var (
	// ErrTooManyParseErrors is returned when the number of consecutive parse errors exceeds the threshold
	ErrTooManyParseErrors = errors.New("too many consecutive parse errors")

	// ErrBrokenPipe is returned when there's an error reading from stdout or stderr
	ErrBrokenPipe = errors.New("broken pipe")
)

// Handler interface defines the methods a capture driver must implement.
// Parse receives one trimmed, non-empty output line; lines that do not
// describe a management frame should be skipped by returning nil without
// emitting an event.
type Handler interface {
	Cmd(ctx context.Context) *exec.Cmd
	Parse(line string, iface string, events chan<- wifi.FrameEvent) error
	Source() string
}

// WithLogger sets the logger for the device
func WithLogger(logger *slog.Logger) func(d *Device) {
	return func(d *Device) {
		d.logger = logger.With(
			slog.String("source", d.handler.Source()),
			slog.String("iface", d.iface),
		)
	}
}

// WithParseErrorsThreshold sets the threshold for consecutive parse errors
func WithParseErrorsThreshold(threshold uint8) func(d *Device) {
	return func(d *Device) {
		d.parseErrorsThreshold = threshold
	}
}

// Device runs one capture tool against one wireless interface and can be
// started and stopped.
type Device struct {
	iface   string
	handler Handler

	isCapturing atomic.Bool
	cancel      context.CancelFunc
	wg          sync.WaitGroup

	parseErrorsThreshold uint8
	logger               *slog.Logger
}

// NewDevice creates a new Device instance with a discard logger
func NewDevice(iface string, h Handler, options ...func(d *Device)) *Device {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // nil logger

	d := Device{
		iface:                iface,
		handler:              h,
		logger:               logger,
		parseErrorsThreshold: ParseErrorsThreshold,
	}

	for _, option := range options {
		option(&d)
	}

	return &d
}

// BeginCapture starts the capture tool and decodes its output into the
// events channel. The returned channel closes when capture stops; it
// carries the terminal error, if any.
func (d *Device) BeginCapture(ctx context.Context, events chan<- wifi.FrameEvent) (<-chan error, error) {
	if d.isCapturing.Load() {
		return nil, fmt.Errorf("device is already running")
	}

	d.isCapturing.Store(true)

	ctx, d.cancel = context.WithCancel(ctx)
	cmd := d.handler.Cmd(ctx)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		d.isCapturing.Store(false) // Reset running state on error
		return nil, fmt.Errorf("error creating stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		d.isCapturing.Store(false) // Reset running state on error
		return nil, fmt.Errorf("error creating stderr pipe: %w", err)
	}

	if err = cmd.Start(); err != nil {
		d.isCapturing.Store(false) // Reset running state on error
		return nil, fmt.Errorf("error starting command: %w", err)
	}

	captureStopped := make(chan error)

	d.wg.Add(1)
	go func() {
		defer close(captureStopped)

		d.logger.Info("starting frame capture...")

		done := make(chan error, 3) // expects three results from three goroutines

		go d.handleStdout(stdout, events, done)
		go d.handleStderr(stderr, done)
		go d.handleCmdWait(cmd, done)

		var errs []error
		for i := 0; i < cap(done); i++ {
			if err := <-done; err != nil {
				d.cancel() // cancel context on error
				d.logger.Error(err.Error())

				errs = append(errs, err)
			}
		}

		close(done)

		d.logger.Info("frame capture stopped")

		d.isCapturing.Store(false)
		d.wg.Done()

		if len(errs) > 0 {
			captureStopped <- errors.Join(errs...)
		}
	}()

	return captureStopped, nil
}

func (d *Device) Stop() {
	if !d.isCapturing.Load() {
		return // already stopped
	}

	d.cancel()
	d.wg.Wait()
	d.isCapturing.Store(false)
}

// IsCapturing returns true if the device is running
func (d *Device) IsCapturing() bool {
	return d.isCapturing.Load()
}

// handleStdout reads from stdout, parses and sends frame events to the events channel.
func (d *Device) handleStdout(stdout io.Reader, events chan<- wifi.FrameEvent, done chan<- error) {
	var parseErrors uint8

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := scanner.Text()
		line = strings.TrimSpace(line)

		if line == "" {
			continue
		}

		if err := d.handler.Parse(line, d.iface, events); err != nil {
			parseErrors++
			d.logger.Warn(fmt.Sprintf("error parsing frame: %s", err.Error()), slog.String("line", line))

			if parseErrors >= d.parseErrorsThreshold {
				done <- ErrTooManyParseErrors
				return
			}

			continue
		}

		parseErrors = 0 // reset counter
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, fs.ErrClosed) {
		done <- fmt.Errorf("%w: error reading stdout: %w", ErrBrokenPipe, err)
		return
	}

	done <- nil
}

// handleStderr reads from stderr and logs errors.
func (d *Device) handleStderr(stderr io.Reader, done chan<- error) {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		line = strings.TrimSpace(line)

		if line == "" {
			continue
		}

		d.logger.Warn(fmt.Sprintf("%s >> %s", d.handler.Source(), line)) // simple logging here
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, fs.ErrClosed) {
		done <- fmt.Errorf("%w: error reading stderr: %w", ErrBrokenPipe, err)
		return
	}

	done <- nil
}

// handleCmdWait waits for the command to exit and sends the error to the error channel
func (d *Device) handleCmdWait(cmd *exec.Cmd, done chan<- error) {
	if err := cmd.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		done <- fmt.Errorf("command exited with error: %w", err)
		return
	}

	done <- nil
}
