// Package compress implements the chunk payload compression strategies.
//
// The compression kind is a closed enum resolved once per chunk and
// dispatched through the Codec interface, so serialization code never
// branches on kind codes directly.
package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Kind identifies the compression applied to a chunk's vertex and face
// arrays. The byte values are part of the on-disk format.
type Kind uint8

const (
	// KindNone stores arrays raw with no length prefix.
	KindNone Kind = 0
	// KindDeflate stores each array zlib-compressed, preceded by a uint32
	// compressed-byte length.
	KindDeflate Kind = 1
)

// ErrUnsupportedKind indicates an unknown compression kind byte.
var ErrUnsupportedKind = errors.New("unsupported compression kind")

// String returns the kind name used in options files and logs.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindDeflate:
		return "deflate"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind maps an options-file name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch name {
	case "", "none":
		return KindNone, nil
	case "deflate", "zlib":
		return KindDeflate, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedKind, name)
	}
}

// Codec encodes and decodes a single typed array payload.
type Codec interface {
	Kind() Kind
	Encode(raw []byte) ([]byte, error)
	// Decode decompresses data. sizeHint is the expected uncompressed size;
	// output is capped just past it so a size mismatch surfaces at the
	// caller's length check instead of unbounded growth.
	Decode(data []byte, sizeHint int) ([]byte, error)
}

// ForKind resolves the codec for a kind byte read from a chunk header.
func ForKind(k Kind) (Codec, error) {
	switch k {
	case KindNone:
		return noneCodec{}, nil
	case KindDeflate:
		return deflateCodec{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedKind, uint8(k))
	}
}

type noneCodec struct{}

func (noneCodec) Kind() Kind { return KindNone }

func (noneCodec) Encode(raw []byte) ([]byte, error) { return raw, nil }

func (noneCodec) Decode(data []byte, _ int) ([]byte, error) { return data, nil }

type deflateCodec struct{}

func (deflateCodec) Kind() Kind { return KindDeflate }

func (deflateCodec) Encode(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		zw.Close()
		return nil, fmt.Errorf("deflate: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("deflate close: %w", err)
	}
	return buf.Bytes(), nil
}

func (deflateCodec) Decode(data []byte, sizeHint int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	defer zr.Close()

	// sizeHint comes from an untrusted header, so the buffer grows with the
	// actual output rather than being preallocated from it. Reading one byte
	// past the hint lets the caller detect oversized payloads.
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(zr, int64(sizeHint)+1)); err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	return buf.Bytes(), nil
}
