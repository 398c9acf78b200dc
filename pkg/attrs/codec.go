package attrs

import (
	"fmt"
	"sort"

	"github.com/chdio/chd/pkg/codec"
)

const (
	// Magic is the 4-byte tag at the start of every attribute file.
	Magic = "CHDA"
	// FormatVersion is the current attribute format version.
	FormatVersion uint16 = 1
)

// Encode serializes a named record section ("materials" or "elements") to
// its binary form. Records are keyed by the original string IDs; the reader
// re-derives surrogate IDs by hashing these keys. Keys and fields are
// written sorted so encoding is deterministic.
func Encode(section string, records map[string]Record) ([]byte, error) {
	w := codec.NewWriter()
	if err := w.WriteMagic(Magic); err != nil {
		return nil, err
	}
	w.WriteUint16(FormatVersion)
	w.WriteString(section)
	w.WriteUint32(uint32(len(records)))

	keys := make([]string, 0, len(records))
	for k := range records {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		rec := records[key]
		w.WriteString(key)
		w.WriteUint32(uint32(len(rec)))

		fields := make([]string, 0, len(rec))
		for name := range rec {
			fields = append(fields, name)
		}
		sort.Strings(fields)

		for _, name := range fields {
			w.WriteString(name)
			if err := encodeValue(w, rec[name]); err != nil {
				return nil, fmt.Errorf("field %s.%s: %w", key, name, err)
			}
		}
	}

	return w.Bytes(), nil
}

func encodeValue(w *codec.Writer, v Value) error {
	w.WriteUint8(uint8(v.Kind))
	switch v.Kind {
	case KindString:
		w.WriteString(v.Str)
	case KindInt:
		w.WriteUint64(uint64(v.Int))
	case KindFloat:
		w.WriteFloat64(v.Float)
	case KindBool:
		if v.Bool {
			w.WriteUint8(1)
		} else {
			w.WriteUint8(0)
		}
	case KindFloatArray:
		w.WriteUint32(uint32(len(v.Floats)))
		for _, f := range v.Floats {
			w.WriteFloat64(f)
		}
	case KindIntArray:
		w.WriteUint32(uint32(len(v.Ints)))
		for _, i := range v.Ints {
			w.WriteUint64(uint64(i))
		}
	case KindStringArray:
		w.WriteUint32(uint32(len(v.Strs)))
		for _, s := range v.Strs {
			w.WriteString(s)
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnknownKind, uint8(v.Kind))
	}
	return nil
}

// Decode parses an attribute file, returning its section name and records
// keyed by the original string IDs.
func Decode(data []byte) (string, map[string]Record, error) {
	section, records, err := decode(data)
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse attribute data: %w", err)
	}
	return section, records, nil
}

func decode(data []byte) (string, map[string]Record, error) {
	r := codec.NewReader(data)
	if err := r.ReadMagic(Magic); err != nil {
		return "", nil, err
	}

	version, err := r.ReadUint16()
	if err != nil {
		return "", nil, err
	}
	if version > FormatVersion {
		return "", nil, fmt.Errorf("%w: attribute version %d, supported up to %d",
			codec.ErrVersionMismatch, version, FormatVersion)
	}

	section, err := r.ReadString()
	if err != nil {
		return "", nil, err
	}
	count, err := r.ReadUint32()
	if err != nil {
		return "", nil, err
	}
	// A record is at least a key length and a field count; reject counts the
	// remaining bytes cannot hold before sizing maps from them.
	if uint64(count)*8 > uint64(r.Remaining()) {
		return "", nil, fmt.Errorf("%w: %d records with %d bytes remaining",
			codec.ErrOutOfRange, count, r.Remaining())
	}

	records := make(map[string]Record, count)
	for i := uint32(0); i < count; i++ {
		key, err := r.ReadString()
		if err != nil {
			return "", nil, err
		}
		fieldCount, err := r.ReadUint32()
		if err != nil {
			return "", nil, err
		}
		if uint64(fieldCount)*5 > uint64(r.Remaining()) {
			return "", nil, fmt.Errorf("%w: record %s claims %d fields with %d bytes remaining",
				codec.ErrOutOfRange, key, fieldCount, r.Remaining())
		}
		rec := make(Record, fieldCount)
		for j := uint32(0); j < fieldCount; j++ {
			name, err := r.ReadString()
			if err != nil {
				return "", nil, err
			}
			v, err := decodeValue(r)
			if err != nil {
				return "", nil, fmt.Errorf("field %s.%s: %w", key, name, err)
			}
			rec[name] = v
		}
		records[key] = rec
	}

	return section, records, nil
}

// checkArrayFits rejects an array count whose minimum encoding cannot fit
// in the remaining bytes.
func checkArrayFits(r *codec.Reader, n uint32, itemSize int) error {
	if uint64(n)*uint64(itemSize) > uint64(r.Remaining()) {
		return fmt.Errorf("%w: array of %d items with %d bytes remaining",
			codec.ErrOutOfRange, n, r.Remaining())
	}
	return nil
}

func decodeValue(r *codec.Reader) (Value, error) {
	kindByte, err := r.ReadUint8()
	if err != nil {
		return Value{}, err
	}

	v := Value{Kind: Kind(kindByte)}
	switch v.Kind {
	case KindString:
		v.Str, err = r.ReadString()
	case KindInt:
		var u uint64
		u, err = r.ReadUint64()
		v.Int = int64(u)
	case KindFloat:
		v.Float, err = r.ReadFloat64()
	case KindBool:
		var b uint8
		b, err = r.ReadUint8()
		v.Bool = b != 0
	case KindFloatArray:
		var n uint32
		if n, err = r.ReadUint32(); err != nil {
			break
		}
		if err = checkArrayFits(r, n, 8); err != nil {
			break
		}
		v.Floats = make([]float64, 0, n)
		for i := uint32(0); i < n; i++ {
			var f float64
			if f, err = r.ReadFloat64(); err != nil {
				break
			}
			v.Floats = append(v.Floats, f)
		}
	case KindIntArray:
		var n uint32
		if n, err = r.ReadUint32(); err != nil {
			break
		}
		if err = checkArrayFits(r, n, 8); err != nil {
			break
		}
		v.Ints = make([]int64, 0, n)
		for i := uint32(0); i < n; i++ {
			var u uint64
			if u, err = r.ReadUint64(); err != nil {
				break
			}
			v.Ints = append(v.Ints, int64(u))
		}
	case KindStringArray:
		var n uint32
		if n, err = r.ReadUint32(); err != nil {
			break
		}
		if err = checkArrayFits(r, n, 4); err != nil {
			break
		}
		v.Strs = make([]string, 0, n)
		for i := uint32(0); i < n; i++ {
			var s string
			if s, err = r.ReadString(); err != nil {
				break
			}
			v.Strs = append(v.Strs, s)
		}
	default:
		return Value{}, fmt.Errorf("%w: %d", ErrUnknownKind, kindByte)
	}
	if err != nil {
		return Value{}, err
	}
	return v, nil
}
