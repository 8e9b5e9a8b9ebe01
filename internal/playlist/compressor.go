package playlist

import (
	"fmt"

	"github.com/klauspost/compress/zstd"

	"storypanel/internal/playlist/interfaces"
)

// maxSnapshotBytes caps the decoded size of a snapshot file. A hotel's story
// list is a few hundred kilobytes at most.
const maxSnapshotBytes = 64 << 20

// ZstdCompression packs playlist snapshots. The encoder and decoder are
// shared and safe for concurrent EncodeAll/DecodeAll calls.
type ZstdCompression struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func (z *ZstdCompression) Compress(val []byte) ([]byte, error) {
	return z.encoder.EncodeAll(val, nil), nil
}

func (z *ZstdCompression) Decompress(val []byte) ([]byte, error) {
	out, err := z.decoder.DecodeAll(val, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd: %w", err)
	}
	return out, nil
}

func (z *ZstdCompression) Close() {
	z.encoder.Close()
	z.decoder.Close()
}

// NewZstdCompressor favours ratio over speed: snapshots are written once a
// minute and read once at startup.
func NewZstdCompressor() (interfaces.CompressorInterface, error) {
	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		zstd.WithEncoderCRC(true),
	)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(maxSnapshotBytes),
	)
	if err != nil {
		encoder.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &ZstdCompression{encoder: encoder, decoder: decoder}, nil
}
