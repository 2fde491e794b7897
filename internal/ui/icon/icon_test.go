package icon

import (
	"bytes"
	"encoding/binary"
	"image/png"
	"testing"
)

func TestPNGDecodes(t *testing.T) {
	img, err := png.Decode(bytes.NewReader(forOS("linux")))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 16 {
		t.Fatalf("unexpected size %v", b)
	}
}

func TestICOHeader(t *testing.T) {
	b := forOS("windows")
	if len(b) < 22 {
		t.Fatalf("ico too short: %d bytes", len(b))
	}
	if binary.LittleEndian.Uint16(b[0:]) != 0 || binary.LittleEndian.Uint16(b[2:]) != 1 {
		t.Fatalf("not an icon resource: % x", b[:4])
	}
	if n := binary.LittleEndian.Uint16(b[4:]); n != 1 {
		t.Fatalf("expected 1 image, got %d", n)
	}
	size := binary.LittleEndian.Uint32(b[14:])
	offset := binary.LittleEndian.Uint32(b[18:])
	if int(offset+size) != len(b) {
		t.Fatalf("image entry %d+%d does not cover %d bytes", offset, size, len(b))
	}
	if !bytes.Equal(b[offset:offset+8], forOS("linux")[:8]) {
		t.Fatalf("ico payload is not the png image")
	}
}

func TestDataNotEmpty(t *testing.T) {
	if len(Data()) == 0 {
		t.Fatal("no icon embedded")
	}
}
