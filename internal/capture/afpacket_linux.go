//go:build linux

package capture

import (
	"fmt"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/afpacket"
	"github.com/sirupsen/logrus"

	"github.com/LinkTsang/tcpts-observer/internal/record"
)

// AFPacketSource reads frames from a TPACKET_V3 ring.
type AFPacketSource struct {
	tp *afpacket.TPacket
}

// OpenAFPacket opens an AF_PACKET ring on opts.Device. Ring timestamps are
// always nanosecond precision.
func OpenAFPacket(opts AFPacketOptions, logger logrus.FieldLogger) (*AFPacketSource, error) {
	frameSize, blockSize, numBlocks, err := ringLayout(opts.BufferSizeMB, opts.SnapLen, os.Getpagesize())
	if err != nil {
		return nil, err
	}

	tp, err := afpacket.NewTPacket(
		afpacket.OptInterface(opts.Device),
		afpacket.OptFrameSize(frameSize),
		afpacket.OptBlockSize(blockSize),
		afpacket.OptNumBlocks(numBlocks),
		afpacket.OptPollTimeout(opts.Timeout),
		afpacket.SocketRaw,
		afpacket.TPacketVersion3,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open af_packet ring on %s: %w", opts.Device, err)
	}

	if opts.Filter != "" {
		prog, err := compileBPF(opts.Filter, opts.SnapLen)
		if err != nil {
			tp.Close()
			return nil, err
		}
		if err := tp.SetBPF(prog); err != nil {
			tp.Close()
			return nil, fmt.Errorf("failed to attach filter: %w", err)
		}
	}

	logger.WithFields(logrus.Fields{
		"device":     opts.Device,
		"frame_size": frameSize,
		"block_size": blockSize,
		"num_blocks": numBlocks,
	}).Info("af_packet capture started")
	return &AFPacketSource{tp: tp}, nil
}

func (s *AFPacketSource) ReadFrame() ([]byte, gopacket.CaptureInfo, error) {
	data, ci, err := s.tp.ZeroCopyReadPacketData()
	if err == afpacket.ErrTimeout {
		return nil, ci, ErrTimeout
	}
	return data, ci, err
}

func (s *AFPacketSource) Precision() record.Precision { return record.Nanosecond }

func (s *AFPacketSource) Close() { s.tp.Close() }
