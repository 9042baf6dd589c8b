package symboldb

import (
	"bytes"
	"encoding/binary"
	"io"
	"time"

	art "github.com/plar/go-adaptive-radix-tree"

	coreerrors "github.com/opencodeintel/tucore/internal/errors"
	"github.com/opencodeintel/tucore/internal/types"
)

// Magic and format version for the persisted layout of spec.md §6.
const (
	magic         uint32 = 0x0A0BFFEE
	formatVersion uint16 = 1
)

// errFormatMismatch is returned when the header doesn't match; Deserialize
// treats it as a no-op on the store per spec.md §4.D, surfacing it only so
// a caller that cares can log it, never as a reason to touch the
// in-memory store — the KindFormatMismatch taxonomy entry (spec.md §7)
// exists precisely so this is not mistaken for a real failure.
var errFormatMismatch = coreerrors.FormatMismatch

// Serialize implements spec.md §4.D's `serialize() -> bytes` per the wire
// layout in spec.md §6: little-endian, length-prefixed UTF-8 strings.
func (db *DB) Serialize() []byte {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var buf bytes.Buffer
	writeU32(&buf, magic)
	writeU16(&buf, formatVersion)

	// Symbols ordered by file then insertion, per spec.md §8 property 3.
	var allSymbols []types.Symbol
	db.files.ForEach(func(node art.Node) bool {
		fe := node.Value().(*fileEntry)
		for _, h := range fe.handles {
			if sym, ok := db.symbols[h]; ok {
				allSymbols = append(allSymbols, *sym)
			}
		}
		return true
	})

	writeU32(&buf, uint32(len(allSymbols)))
	for _, sym := range allSymbols {
		writeString(&buf, sym.Name)
		writeString(&buf, sym.Qualification)
		writeString(&buf, sym.Location.FileName)
		writeU32(&buf, uint32(sym.Location.Line))
		writeU16(&buf, uint16(sym.Location.Column))
		writeU32(&buf, uint32(sym.Location.Offset))
		buf.WriteByte(byte(int8(sym.Kind)))
	}

	type tsEntry struct {
		file string
		ts   int64
	}
	var timestamps []tsEntry
	db.files.ForEach(func(node art.Node) bool {
		fe := node.Value().(*fileEntry)
		timestamps = append(timestamps, tsEntry{file: string(node.Key()), ts: fe.timestamp.UnixMilli()})
		return true
	})

	writeU32(&buf, uint32(len(timestamps)))
	for _, ts := range timestamps {
		writeString(&buf, ts.file)
		writeI64(&buf, ts.ts)
	}

	return buf.Bytes()
}

// Deserialize implements spec.md §4.D's `deserialize(bytes)`: on magic or
// version mismatch it is a no-op (spec.md §7 FormatMismatch: "persisted
// file with unexpected magic/version is ignored"). On success it clears
// the current store and rebuilds it by re-inserting every symbol and
// timestamp through the normal insertion path, so indices come out
// identical to a live run (spec.md §4.D: "on restore, iterate and
// re-insert via the insertion path so indices are rebuilt identically").
func (db *DB) Deserialize(data []byte) error {
	r := bytes.NewReader(data)

	gotMagic, err := readU32(r)
	if err != nil || gotMagic != magic {
		return errFormatMismatch
	}
	gotVersion, err := readU16(r)
	if err != nil || gotVersion != formatVersion {
		return errFormatMismatch
	}

	nSymbols, err := readU32(r)
	if err != nil {
		return errFormatMismatch
	}
	type decodedSymbol struct {
		sym types.Symbol
	}
	decoded := make([]decodedSymbol, 0, nSymbols)
	for i := uint32(0); i < nSymbols; i++ {
		name, err := readString(r)
		if err != nil {
			return errFormatMismatch
		}
		qualification, err := readString(r)
		if err != nil {
			return errFormatMismatch
		}
		fileName, err := readString(r)
		if err != nil {
			return errFormatMismatch
		}
		line, err := readU32(r)
		if err != nil {
			return errFormatMismatch
		}
		column, err := readU16(r)
		if err != nil {
			return errFormatMismatch
		}
		offset, err := readU32(r)
		if err != nil {
			return errFormatMismatch
		}
		kindByte, err := r.ReadByte()
		if err != nil {
			return errFormatMismatch
		}
		decoded = append(decoded, decodedSymbol{sym: types.Symbol{
			Name:          name,
			Qualification: qualification,
			Kind:          types.SymbolKind(int8(kindByte)),
			Location: types.SourceLocation{
				FileName: fileName,
				Line:     int(line),
				Column:   int(column),
				Offset:   int(offset),
			},
		}})
	}

	nTimestamps, err := readU32(r)
	if err != nil {
		return errFormatMismatch
	}
	type decodedTimestamp struct {
		file string
		ts   time.Time
	}
	timestamps := make([]decodedTimestamp, 0, nTimestamps)
	for i := uint32(0); i < nTimestamps; i++ {
		file, err := readString(r)
		if err != nil {
			return errFormatMismatch
		}
		millis, err := readI64(r)
		if err != nil {
			return errFormatMismatch
		}
		timestamps = append(timestamps, decodedTimestamp{file: file, ts: time.UnixMilli(millis)})
	}

	db.Clear()

	// Re-insert through the normal insertion path so indices come out
	// identical to a live run (spec.md §4.D). The wire format has no
	// per-symbol timestamp, only per-file ones, so symbols are inserted
	// with a zero timestamp first; the real per-file timestamps applied
	// right after always win (InsertSymbol/InsertFile only ever advance
	// a file's timestamp forward).
	for _, ds := range decoded {
		db.InsertSymbol(ds.sym, time.Time{})
	}
	for _, ts := range timestamps {
		db.InsertFile(ts.file, ts.ts)
	}
	return nil
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeI64(buf *bytes.Buffer, v int64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(v))
	buf.Write(b[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeU32(buf, uint32(len(s)))
	buf.WriteString(s)
}

func readU16(r *bytes.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func readU32(r *bytes.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func readI64(r *bytes.Reader) (int64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readU32(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
