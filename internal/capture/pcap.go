package capture

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/sirupsen/logrus"

	"github.com/LinkTsang/tcpts-observer/internal/record"
)

// PcapSource reads frames from a libpcap handle.
type PcapSource struct {
	handle    *pcap.Handle
	precision record.Precision
}

// OpenLive creates and activates a live capture on opts.Device, selecting the
// best timestamp source the device offers.
func OpenLive(opts LiveOptions, logger logrus.FieldLogger) (*PcapSource, error) {
	inactive, err := pcap.NewInactiveHandle(opts.Device)
	if err != nil {
		return nil, fmt.Errorf("failed to create handle for %s: %w", opts.Device, err)
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(opts.SnapLen); err != nil {
		return nil, fmt.Errorf("failed to set snaplen: %w", err)
	}
	if err := inactive.SetPromisc(opts.Promisc); err != nil {
		return nil, fmt.Errorf("failed to set promiscuous mode: %w", err)
	}
	if err := inactive.SetTimeout(opts.Timeout); err != nil {
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}
	if opts.BufferSize > 0 {
		if err := inactive.SetBufferSize(opts.BufferSize); err != nil {
			return nil, fmt.Errorf("failed to set buffer size: %w", err)
		}
	}

	selectTimestampSource(inactive, logger)

	handle, err := inactive.Activate()
	if err != nil {
		return nil, fmt.Errorf("failed to activate capture on %s: %w", opts.Device, err)
	}

	src, err := newPcapSource(handle, opts.Filter)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"device":    opts.Device,
		"snaplen":   opts.SnapLen,
		"promisc":   opts.Promisc,
		"timeout":   opts.Timeout,
		"precision": src.precision,
	}).Info("live capture started")
	return src, nil
}

// OpenOffline replays a pcap file.
func OpenOffline(path, filter string, logger logrus.FieldLogger) (*PcapSource, error) {
	handle, err := pcap.OpenOffline(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap file %s: %w", path, err)
	}
	src, err := newPcapSource(handle, filter)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{
		"file":      path,
		"precision": src.precision,
	}).Info("replaying capture file")
	return src, nil
}

func newPcapSource(handle *pcap.Handle, filter string) (*PcapSource, error) {
	if lt := handle.LinkType(); lt != layers.LinkTypeEthernet {
		handle.Close()
		return nil, fmt.Errorf("unsupported link type %s, only ethernet is supported", lt)
	}
	if filter != "" {
		if err := handle.SetBPFFilter(filter); err != nil {
			handle.Close()
			return nil, fmt.Errorf("failed to install filter %q: %w", filter, err)
		}
	}
	return &PcapSource{handle: handle, precision: precisionOf(handle.Resolution())}, nil
}

// timestampSelector is the part of *pcap.InactiveHandle that negotiates the
// timestamp source.
type timestampSelector interface {
	SupportedTimestamps() []pcap.TimestampSource
	SetTimestampSource(pcap.TimestampSource) error
}

func selectTimestampSource(inactive timestampSelector, logger logrus.FieldLogger) {
	supported := inactive.SupportedTimestamps()
	if len(supported) == 0 {
		return
	}
	names := make([]string, len(supported))
	for i, ts := range supported {
		names[i] = ts.String()
	}
	logger.WithField("sources", names).Debug("available packet timers")

	best, ok := BestTimestampSource(names)
	if !ok {
		return
	}
	ts, err := pcap.TimestampSourceFromString(best)
	if err == nil {
		err = inactive.SetTimestampSource(ts)
	}
	if err != nil {
		logger.WithError(err).WithField("source", best).Warn("failed to set preferred timestamp source")
		return
	}
	logger.WithField("source", best).Info("timestamp source selected")
}

func (s *PcapSource) ReadFrame() ([]byte, gopacket.CaptureInfo, error) {
	data, ci, err := s.handle.ZeroCopyReadPacketData()
	if err == pcap.NextErrorTimeoutExpired {
		return nil, ci, ErrTimeout
	}
	return data, ci, err
}

func (s *PcapSource) Precision() record.Precision { return s.precision }

func (s *PcapSource) Close() { s.handle.Close() }
