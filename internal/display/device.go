package display

import (
	"github.com/fatkhur1960/ocypus-digital/internal/errors"
	"github.com/fatkhur1960/ocypus-digital/internal/logger"
	"github.com/google/gousb"
)

// HID class request constants used for the SET_REPORT fallback path.
const (
	hidReqSetReport    = 0x09
	hidReportTypeOut   = 0x02
	hidRequestTypeOut  = 0x21 // host-to-device | class | interface
	displayConfigNum   = 1
	displayIfaceNum    = 0
	displayIfaceAltNum = 0
)

// Device owns the open handle to the display. Exactly one goroutine (the
// monitor consumer) may call Send and Reconnect; no locking is needed.
type Device struct {
	ctx  *gousb.Context
	dev  *gousb.Device
	cfg  *gousb.Config
	intf *gousb.Interface
	out  *gousb.OutEndpoint
}

// Open creates the USB context and connects to the first display that opens.
func Open() (*Device, error) {
	d := &Device{ctx: gousb.NewContext()}

	if err := d.connect(); err != nil {
		d.ctx.Close()
		return nil, err
	}

	return d, nil
}

// connect enumerates HID devices, filters by the fixed VID/PID pair, and
// claims the first candidate that opens.
func (d *Device) connect() error {
	logger.Info().Msg("Scanning for Ocypus Iota display...")

	devs, err := d.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(VendorID) && desc.Product == gousb.ID(ProductID)
	})
	if err != nil {
		// Candidates that failed to open are logged; any that opened are
		// still usable.
		logger.Warn().Err(err).Msg("some device candidates failed to open")
	}
	if len(devs) == 0 {
		return errors.New(ErrDeviceNotFound)
	}

	for _, extra := range devs[1:] {
		extra.Close()
	}
	dev := devs[0]

	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		return errors.Wrap(ErrDeviceOpen, err)
	}

	cfg, err := dev.Config(displayConfigNum)
	if err != nil {
		dev.Close()
		return errors.Wrap(ErrDeviceOpen, err)
	}

	intf, err := cfg.Interface(displayIfaceNum, displayIfaceAltNum)
	if err != nil {
		cfg.Close()
		dev.Close()
		return errors.Wrap(ErrDeviceOpen, err)
	}

	// Prefer the interrupt OUT endpoint; without one, Send falls back to a
	// SET_REPORT control transfer.
	var out *gousb.OutEndpoint
	for _, ep := range intf.Setting.Endpoints {
		if ep.Direction != gousb.EndpointDirectionOut {
			continue
		}
		out, err = intf.OutEndpoint(ep.Number)
		if err != nil {
			logger.Warn().Err(err).Int("endpoint", ep.Number).Msg("failed to claim OUT endpoint")
			out = nil
		}
		break
	}

	d.dev = dev
	d.cfg = cfg
	d.intf = intf
	d.out = out

	logger.Info().
		Str("device", dev.String()).
		Bool("interrupt_out", out != nil).
		Msg("Connected to Ocypus Iota display")

	return nil
}

// Send writes one 64-byte report to the device. A short write is logged as a
// warning but not treated as failure.
func (d *Device) Send(report [ReportLength]byte) error {
	if d.dev == nil {
		return errors.New(ErrDeviceNotConnected)
	}

	n, err := d.write(report[:])
	if err != nil {
		return errors.Wrap(ErrDeviceWrite, err)
	}
	if n < ReportLength {
		logger.Warn().Int("written", n).Int("expected", ReportLength).Msg("short write to device")
	}

	logger.Debug().Int("bytes", n).Msg("report written")

	return nil
}

func (d *Device) write(data []byte) (int, error) {
	if d.out != nil {
		return d.out.Write(data)
	}

	return d.dev.Control(
		hidRequestTypeOut,
		hidReqSetReport,
		uint16(hidReportTypeOut)<<8|uint16(ReportID),
		displayIfaceNum,
		data,
	)
}

// Reconnect drops the current handle and re-runs the device scan.
func (d *Device) Reconnect() error {
	logger.Info().Msg("Attempting to reconnect to device...")

	d.drop()

	return d.connect()
}

func (d *Device) drop() {
	if d.intf != nil {
		d.intf.Close()
		d.intf = nil
		d.out = nil
	}
	if d.cfg != nil {
		d.cfg.Close()
		d.cfg = nil
	}
	if d.dev != nil {
		d.dev.Close()
		d.dev = nil
	}
}

// Close releases the device handle and the USB context.
func (d *Device) Close() {
	d.drop()
	if d.ctx != nil {
		d.ctx.Close()
		d.ctx = nil
	}
}
