//go:build !linux

package capture

import (
	"errors"

	"github.com/google/gopacket"
	"github.com/sirupsen/logrus"

	"github.com/LinkTsang/tcpts-observer/internal/record"
)

// AFPacketSource is unavailable outside Linux.
type AFPacketSource struct{}

func OpenAFPacket(opts AFPacketOptions, logger logrus.FieldLogger) (*AFPacketSource, error) {
	return nil, errors.New("capture: af_packet is only supported on linux")
}

func (s *AFPacketSource) ReadFrame() ([]byte, gopacket.CaptureInfo, error) {
	return nil, gopacket.CaptureInfo{}, errors.New("capture: af_packet is only supported on linux")
}

func (s *AFPacketSource) Precision() record.Precision { return record.Nanosecond }

func (s *AFPacketSource) Close() {}
