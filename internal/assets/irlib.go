package assets

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/cwbudde/effectrack/dsp/buffer"
	"github.com/cwbudde/effectrack/dsp/effectchain"
)

// IRLB layout, all little endian:
//
//	header  "IRLB" u16 version u32 count u64 indexOffset
//	index   "INDX" u64 size, entries of u64 offset f64 rate u32 channels
//	        u32 length str name str category
//	chunk   "IR--" u64 size, sub-chunks "META" / "AUDI" (u32 size each)
//	META    f64 rate u32 channels u32 length str name str description
//	        str category u16 tagCount str tags...
//	AUDI    interleaved float16 samples
//
// Strings are a u16 length followed by UTF-8 bytes.
const irlibVersion = 1

// Impulse is one entry of an IR library.
type Impulse struct {
	Name     string
	Category string
	Buffer   *buffer.AudioBuffer
}

// ReadIRLibrary decodes an IRLB file. Damaged entries are skipped; the
// returned error joins their errors.
func ReadIRLibrary(data []byte) ([]Impulse, error) {
	r := &irReader{r: bytes.NewReader(data)}

	if magic := r.magic(); magic != "IRLB" {
		return nil, fmt.Errorf("irlib: invalid magic %q", magic)
	}

	if v := r.u16(); r.err == nil && v != irlibVersion {
		return nil, fmt.Errorf("irlib: unsupported version %d", v)
	}

	count := r.u32()
	r.seek(int64(r.u64()))

	if magic := r.magic(); r.err == nil && magic != "INDX" {
		return nil, fmt.Errorf("irlib: expected INDX chunk, got %q", magic)
	}

	size := r.u64()

	type indexEntry struct {
		offset uint64
		name   string
	}

	entries := make([]indexEntry, 0, min(count, 1024))

	for start := r.pos(); r.err == nil && uint64(r.pos()-start) < size; {
		e := indexEntry{offset: r.u64()}
		r.f64() // rate
		r.u32() // channels
		r.u32() // length
		e.name = r.str()
		r.str() // category
		entries = append(entries, e)
	}

	if r.err != nil {
		return nil, fmt.Errorf("irlib: index: %w", r.err)
	}

	var (
		out  []Impulse
		errs []error
	)

	for _, e := range entries {
		ir, err := readIRChunk(data, e.offset)
		if err != nil {
			errs = append(errs, fmt.Errorf("irlib: %q: %w", e.name, err))
			continue
		}

		out = append(out, ir)
	}

	return out, errors.Join(errs...)
}

// Library returns the impulses keyed by name.
func Library(irs []Impulse) effectchain.ImpulseLibrary {
	lib := make(effectchain.ImpulseLibrary, len(irs))
	for _, ir := range irs {
		lib[ir.Name] = ir.Buffer
	}

	return lib
}

func readIRChunk(data []byte, offset uint64) (Impulse, error) {
	r := &irReader{r: bytes.NewReader(data)}
	r.seek(int64(offset))

	if magic := r.magic(); r.err == nil && magic != "IR--" {
		return Impulse{}, fmt.Errorf("expected IR-- at offset %d, got %q", offset, magic)
	}

	size := r.u64()

	var (
		ir       Impulse
		rate     float64
		channels int
		audio    []byte
		hasMeta  bool
	)

	for start := r.pos(); r.err == nil && uint64(r.pos()-start) < size; {
		magic := r.magic()
		sub := int64(r.u32())
		next := r.pos() + sub

		switch magic {
		case "META":
			rate = r.f64()
			channels = int(r.u32())
			r.u32() // length
			ir.Name = r.str()
			r.str() // description
			ir.Category = r.str()
			for range r.u16() {
				r.str()
			}
			hasMeta = true
		case "AUDI":
			audio = r.bytes(int(sub))
		}

		r.seek(next)
	}

	if r.err != nil && !errors.Is(r.err, io.EOF) {
		return Impulse{}, r.err
	}

	if !hasMeta || audio == nil {
		return Impulse{}, errors.New("incomplete IR chunk")
	}

	if channels <= 0 {
		return Impulse{}, fmt.Errorf("invalid channel count %d", channels)
	}

	frames := len(audio) / 2 / channels
	if frames == 0 {
		return Impulse{}, errors.New("no audio")
	}

	buf, err := buffer.New(channels, frames, rate)
	if err != nil {
		return Impulse{}, err
	}

	for i := range frames * channels {
		h := binary.LittleEndian.Uint16(audio[2*i:])
		buf.Channel(i % channels)[i/channels] = float64(decodeF16(h))
	}

	ir.Buffer = buf

	return ir, nil
}

// irReader is a little endian reader that keeps the first error.
type irReader struct {
	r   *bytes.Reader
	err error
}

func (r *irReader) read(v any) {
	if r.err == nil {
		r.err = binary.Read(r.r, binary.LittleEndian, v)
	}
}

func (r *irReader) u16() (v uint16)  { r.read(&v); return v }
func (r *irReader) u32() (v uint32)  { r.read(&v); return v }
func (r *irReader) u64() (v uint64)  { r.read(&v); return v }
func (r *irReader) f64() (v float64) { r.read(&v); return v }

func (r *irReader) magic() string {
	return string(r.bytes(4))
}

func (r *irReader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}

	if n < 0 || n > r.r.Len() {
		r.err = io.ErrUnexpectedEOF
		return nil
	}

	b := make([]byte, n)
	_, r.err = io.ReadFull(r.r, b)

	return b
}

func (r *irReader) str() string {
	return string(r.bytes(int(r.u16())))
}

func (r *irReader) pos() int64 {
	return r.r.Size() - int64(r.r.Len())
}

func (r *irReader) seek(off int64) {
	if r.err == nil {
		_, r.err = r.r.Seek(off, io.SeekStart)
	}
}

// decodeF16 converts an IEEE 754 half-precision value.
func decodeF16(h uint16) float32 {
	sign := uint32(h>>15) << 31
	exp := int(h>>10) & 0x1F
	frac := uint32(h & 0x3FF)

	var bits uint32

	switch exp {
	case 0:
		if frac == 0 {
			bits = sign
			break
		}

		e := 0
		for frac&0x400 == 0 {
			frac <<= 1
			e++
		}
		bits = sign | uint32(127-14-e)<<23 | (frac&0x3FF)<<13
	case 31:
		bits = sign | 0x7F800000 | frac<<13
	default:
		bits = sign | uint32(exp+112)<<23 | frac<<13
	}

	return math.Float32frombits(bits)
}
