// Package capture drives packet capture from a live device or a pcap file,
// feeding each captured buffer through the reassembler and, when a
// subscriber is registered for the decoded message id, through the schema
// decoder and subscription dispatcher.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
	"go.uber.org/zap"

	"github.com/vahor/dofuscap/internal/cursor"
	"github.com/vahor/dofuscap/internal/decode"
	"github.com/vahor/dofuscap/internal/frame"
	"github.com/vahor/dofuscap/internal/message"
	"github.com/vahor/dofuscap/internal/reassemble"
	"github.com/vahor/dofuscap/internal/subscribe"
)

// FailedToOpenDeviceError wraps the underlying pcap error when a live
// device cannot be opened.
type FailedToOpenDeviceError struct {
	Device string
	Err    error
}

func (e *FailedToOpenDeviceError) Error() string {
	return fmt.Sprintf("capture: failed to open device %q: %v", e.Device, e.Err)
}

func (e *FailedToOpenDeviceError) Unwrap() error { return e.Err }

// InvalidCaptureDeviceError is returned when the configured live device
// name does not match any interface pcap can enumerate.
type InvalidCaptureDeviceError struct {
	Device string
}

func (e *InvalidCaptureDeviceError) Error() string {
	return fmt.Sprintf("capture: invalid device %q", e.Device)
}

// packetSource abstracts gopacket's live and offline sources behind the
// one method the loop needs, so tests can substitute a fake.
type packetSource interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	Close()
}

// Loop owns the reassembler and drives decode+dispatch for one capture
// session. It is not safe for concurrent Run calls.
type Loop struct {
	Registry    *subscribe.Registry
	Decoder     *decode.Decoder
	Profiles    *ProfileMap
	Metrics     *Metrics
	Log         *zap.Logger
	reassembler *reassemble.Reassembler
}

// New builds a Loop ready to Run against a live device or file source.
func New(reg *subscribe.Registry, dec *decode.Decoder, log *zap.Logger) *Loop {
	return &Loop{
		Registry:    reg,
		Decoder:     dec,
		Profiles:    NewProfileMap(),
		Log:         log,
		reassembler: reassemble.New(),
	}
}

// OpenLive opens device in immediate mode, filtered to inbound TCP traffic
// on port, mirroring the original capture's
// `Capture::from_device(...).immediate_mode(true).direction(In)` setup.
func OpenLive(device string, port uint16) (*pcap.Handle, error) {
	if devs, err := pcap.FindAllDevs(); err == nil {
		found := false
		for _, d := range devs {
			if d.Name == device {
				found = true
				break
			}
		}
		if !found {
			return nil, &InvalidCaptureDeviceError{Device: device}
		}
	}

	inactive, err := pcap.NewInactiveHandle(device)
	if err != nil {
		return nil, &FailedToOpenDeviceError{Device: device, Err: err}
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(65536); err != nil {
		return nil, &FailedToOpenDeviceError{Device: device, Err: err}
	}
	if err := inactive.SetPromisc(false); err != nil {
		return nil, &FailedToOpenDeviceError{Device: device, Err: err}
	}
	if err := inactive.SetImmediateMode(true); err != nil {
		return nil, &FailedToOpenDeviceError{Device: device, Err: err}
	}
	if err := inactive.SetTimeout(time.Second); err != nil {
		return nil, &FailedToOpenDeviceError{Device: device, Err: err}
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, &FailedToOpenDeviceError{Device: device, Err: err}
	}

	if err := handle.SetDirection(pcap.DirectionIn); err != nil {
		handle.Close()
		return nil, &FailedToOpenDeviceError{Device: device, Err: err}
	}
	if err := handle.SetBPFFilter(fmt.Sprintf("tcp port %d", port)); err != nil {
		handle.Close()
		return nil, &FailedToOpenDeviceError{Device: device, Err: err}
	}

	return handle, nil
}

// OpenFile opens a pcap file as a replay source.
func OpenFile(path string) (*pcap.Handle, error) {
	handle, err := pcap.OpenOffline(path)
	if err != nil {
		return nil, fmt.Errorf("capture: open file %q: %w", path, err)
	}
	return handle, nil
}

// Run drives the capture loop until ctx is canceled, the source returns
// io.EOF (end of a file replay), or a capture I/O error occurs. Decode
// errors are logged and skipped; they do not terminate the loop.
func (l *Loop) Run(ctx context.Context, src packetSource) error {
	defer src.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		raw, info, err := src.ReadPacketData()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, pcap.NextErrorTimeoutExpired) {
				if errors.Is(err, io.EOF) {
					return nil
				}
				continue
			}
			return fmt.Errorf("capture: read packet: %w", err)
		}

		l.handlePacket(raw, info.Timestamp)
	}
}

func (l *Loop) handlePacket(raw []byte, ts time.Time) {
	if hdr, err := frame.Parse(raw); err == nil {
		l.Profiles.Observe(hdr.SourceIP.String(), len(hdr.Body), ts)
	}

	metas, err := l.reassembler.Feed(raw)
	if err != nil {
		l.Log.Debug("reassembler dropped buffer", zap.Error(err))
		if l.Metrics != nil {
			l.Metrics.FramesDropped.WithLabelValues("reassembly").Inc()
		}
		return
	}

	for _, meta := range metas {
		l.dispatchOne(meta)
	}
}

func (l *Loop) dispatchOne(meta *message.Metadata) {
	if !l.Registry.HasSubscriptions(meta.ID) {
		if l.Metrics != nil {
			l.Metrics.FramesDropped.WithLabelValues("no_subscribers").Inc()
		}
		return
	}

	msg, err := l.Decoder.Decode(meta.ID, cursor.New(meta.Data))
	if err != nil {
		l.Log.Warn("failed to decode message", zap.Uint16("id", meta.ID), zap.Error(err))
		if l.Metrics != nil {
			l.Metrics.FramesDropped.WithLabelValues("decode_error").Inc()
		}
		return
	}

	if l.Metrics != nil {
		l.Metrics.FramesDecoded.Inc()
	}
	l.Registry.Dispatch(meta.ID, msg)
}
