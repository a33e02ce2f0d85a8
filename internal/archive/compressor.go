package archive

import (
	"fmt"
	"strings"

	"github.com/klauspost/compress/zstd"

	"gerritwatch/internal/archive/interfaces"
	"gerritwatch/internal/structures"
)

const zstdExt = ".zst"

type ZstdCompression struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func (z *ZstdCompression) Compress(val []byte) ([]byte, error) {
	return z.encoder.EncodeAll(val, make([]byte, 0, len(val)/2)), nil
}

func (z *ZstdCompression) Decompress(val []byte) ([]byte, error) {
	return z.decoder.DecodeAll(val, nil)
}

func (z *ZstdCompression) Close() {
	_ = z.encoder.Close()
	z.decoder.Close()
}

func NewZstdCompressor() (interfaces.CompressorInterface, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &ZstdCompression{encoder: encoder, decoder: decoder}, nil
}

// plainCompression stores data as-is, for archives kept in readable JSON.
type plainCompression struct{}

func (plainCompression) Compress(val []byte) ([]byte, error)   { return val, nil }
func (plainCompression) Decompress(val []byte) ([]byte, error) { return val, nil }
func (plainCompression) Close()                                {}

// NewCompressor picks zstd when the data file extension ends in .zst.
func NewCompressor(conf *structures.Config) (interfaces.CompressorInterface, error) {
	if strings.HasSuffix(conf.Monitor.DataFileExt, zstdExt) {
		return NewZstdCompressor()
	}
	return plainCompression{}, nil
}
