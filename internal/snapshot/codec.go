// Package snapshot persists loaded word lists so a restarted process, or a
// sibling replica, can skip the network fetch.
//
// Encoded layout:
//
//	[magic "ANGS"][version u8][compression u8][uncompressed size u32 LE][payload]
//
// The payload is a msgpack Snapshot, compressed according to the compression byte.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/gcbaptista/go-anagram-search/store"
)

const (
	// FormatVersion is bumped whenever the envelope layout changes.
	FormatVersion uint8 = 1

	headerSize = 10

	// MaxDecodedSize bounds the uncompressed payload a snapshot may declare.
	MaxDecodedSize = 512 << 20

	// lz4 cannot expand a block by more than this factor.
	maxLZ4Ratio = 255
)

var magic = []byte("ANGS")

// ErrCorrupt is returned when encoded bytes cannot be decoded into a valid snapshot.
var ErrCorrupt = errors.New("snapshot corrupt")

// Compression identifies the algorithm applied to the msgpack payload.
type Compression uint8

const (
	CompressionNone Compression = 0
	CompressionLZ4  Compression = 1
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression maps a config value to a Compression.
func ParseCompression(name string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	case "none":
		return CompressionNone, nil
	default:
		return CompressionNone, fmt.Errorf("unknown snapshot compression %q", name)
	}
}

// Snapshot is a persisted word list.
type Snapshot struct {
	Version   uint8     `msgpack:"version"`
	Checksum  uint64    `msgpack:"checksum"`
	Source    string    `msgpack:"source"`
	FetchedAt time.Time `msgpack:"fetched_at"`
	Words     []string  `msgpack:"words"`
}

// New builds a snapshot of words with its checksum filled in.
func New(source string, words []string, fetchedAt time.Time) *Snapshot {
	return &Snapshot{
		Version:   FormatVersion,
		Checksum:  store.Checksum(words),
		Source:    source,
		FetchedAt: fetchedAt.UTC(),
		Words:     words,
	}
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxDecodedSize))
}

// Encode serializes s and compresses it. If lz4 cannot shrink the payload it
// is stored uncompressed.
func Encode(s *Snapshot, compression Compression) ([]byte, error) {
	if s == nil {
		return nil, errors.New("nil snapshot")
	}

	raw, err := msgpack.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	var payload []byte
	switch compression {
	case CompressionNone:
		payload = raw
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compression failed: %w", err)
		}
		if n == 0 {
			compression = CompressionNone
			payload = raw
		} else {
			payload = buf[:n]
		}
	case CompressionZstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		payload = enc.EncodeAll(raw, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("unknown snapshot compression %d", compression)
	}

	out := make([]byte, headerSize, headerSize+len(payload))
	copy(out, magic)
	out[4] = FormatVersion
	out[5] = uint8(compression)
	binary.LittleEndian.PutUint32(out[6:], uint32(len(raw)))
	return append(out, payload...), nil
}

// Decode reverses Encode and verifies the word checksum.
func Decode(data []byte) (*Snapshot, error) {
	if len(data) < headerSize || !bytes.Equal(data[:4], magic) {
		return nil, fmt.Errorf("%w: bad header", ErrCorrupt)
	}
	if data[4] != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, data[4])
	}

	compression := Compression(data[5])
	size := binary.LittleEndian.Uint32(data[6:])
	payload := data[headerSize:]

	// The header is untrusted: check the declared size before allocating for it.
	if size > MaxDecodedSize {
		return nil, fmt.Errorf("%w: declared size %d exceeds limit %d", ErrCorrupt, size, MaxDecodedSize)
	}

	var raw []byte
	switch compression {
	case CompressionNone:
		raw = payload
	case CompressionLZ4:
		if uint64(size) > uint64(len(payload))*maxLZ4Ratio {
			return nil, fmt.Errorf("%w: declared size %d impossible for %d compressed bytes", ErrCorrupt, size, len(payload))
		}
		raw = make([]byte, size)
		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		raw = raw[:n]
	case CompressionZstd:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		raw, err = dec.DecodeAll(payload, make([]byte, 0, min(int(size), 16*len(payload))))
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrCorrupt, compression)
	}

	if uint32(len(raw)) != size {
		return nil, fmt.Errorf("%w: decompressed size mismatch", ErrCorrupt)
	}

	var s Snapshot
	if err := msgpack.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if sum := store.Checksum(s.Words); sum != s.Checksum {
		return nil, fmt.Errorf("%w: checksum %016x does not match %016x", ErrCorrupt, sum, s.Checksum)
	}
	return &s, nil
}
