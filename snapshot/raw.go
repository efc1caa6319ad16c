package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/svanichkin/camterm/codec"
)

// RawMagic prefixes a raw snapshot: magic, then little-endian uint32 width
// and height, then the zstd-compressed RGB24 pixels.
const RawMagic = "CAMR"

var (
	zstdEncoderLevel = zstd.SpeedBetterCompression

	sharedZstdEncoder persistentZstdEncoder
	sharedZstdDecoder persistentZstdDecoder
)

type persistentZstdEncoder struct {
	once sync.Once
	mu   sync.Mutex
	enc  *zstd.Encoder
	err  error
}

func (p *persistentZstdEncoder) use(fn func(*zstd.Encoder) error) error {
	p.once.Do(func() {
		p.enc, p.err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstdEncoderLevel))
	})
	if p.err != nil {
		return p.err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(p.enc)
}

type persistentZstdDecoder struct {
	once sync.Once
	mu   sync.Mutex
	dec  *zstd.Decoder
	err  error
}

func (p *persistentZstdDecoder) use(fn func(*zstd.Decoder) error) error {
	p.once.Do(func() {
		p.dec, p.err = zstd.NewReader(nil)
	})
	if p.err != nil {
		return p.err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return fn(p.dec)
}

// WriteRaw writes frame as a raw snapshot.
func WriteRaw(w io.Writer, frame codec.Frame) error {
	var header [len(RawMagic) + 8]byte
	copy(header[:], RawMagic)
	binary.LittleEndian.PutUint32(header[4:], uint32(frame.Width))
	binary.LittleEndian.PutUint32(header[8:], uint32(frame.Height))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	return sharedZstdEncoder.use(func(enc *zstd.Encoder) error {
		enc.Reset(w)
		if _, err := enc.Write(frame.Data[:frame.Width*frame.Height*3]); err != nil {
			_ = enc.Close()
			return err
		}
		return enc.Close()
	})
}

// ReadRaw decodes a raw snapshot written by WriteRaw.
func ReadRaw(r io.Reader) (codec.Frame, error) {
	var header [len(RawMagic) + 8]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return codec.Frame{}, fmt.Errorf("raw header: %w", err)
	}
	if string(header[:len(RawMagic)]) != RawMagic {
		return codec.Frame{}, fmt.Errorf("raw header: bad magic %q", header[:len(RawMagic)])
	}
	w := int(binary.LittleEndian.Uint32(header[4:]))
	h := int(binary.LittleEndian.Uint32(header[8:]))

	var out bytes.Buffer
	if err := sharedZstdDecoder.use(func(dec *zstd.Decoder) error {
		if err := dec.Reset(r); err != nil {
			return err
		}
		_, err := out.ReadFrom(dec)
		return err
	}); err != nil {
		return codec.Frame{}, fmt.Errorf("raw payload: %w", err)
	}
	frame := codec.Frame{Width: w, Height: h, Data: out.Bytes()}
	if !frame.Valid() || len(frame.Data) != w*h*3 {
		return codec.Frame{}, fmt.Errorf("raw payload: %d bytes for %dx%d", len(frame.Data), w, h)
	}
	return frame, nil
}
