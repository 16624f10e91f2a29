package tray

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"runtime"
)

const iconSize = 32

// Icon returns the tray icon in the encoding the platform tray expects: ICO
// on Windows, PNG elsewhere.
func Icon() ([]byte, error) {
	raw, err := iconPNG()
	if err != nil {
		return nil, err
	}
	if runtime.GOOS == "windows" {
		return wrapICO(raw, iconSize), nil
	}
	return raw, nil
}

// iconPNG draws a hollow rounded frame with a filled handle at the bottom,
// echoing the overlay's control bar.
func iconPNG() ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, iconSize, iconSize))
	frame := color.NRGBA{R: 0x00, G: 0x78, B: 0xd4, A: 0xff}
	handle := color.NRGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}

	for y := 2; y < iconSize-2; y++ {
		for x := 2; x < iconSize-2; x++ {
			edge := x < 5 || x >= iconSize-5 || y < 5 || y >= iconSize-5
			corner := (x < 4 || x >= iconSize-4) && (y < 4 || y >= iconSize-4)
			if edge && !corner {
				img.SetNRGBA(x, y, frame)
			}
		}
	}
	for y := iconSize - 11; y < iconSize-7; y++ {
		for x := 10; x < iconSize-10; x++ {
			img.SetNRGBA(x, y, handle)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// wrapICO embeds a PNG image in a single-entry ICO container.
func wrapICO(pngData []byte, size int) []byte {
	var buf bytes.Buffer
	le := binary.LittleEndian
	_ = binary.Write(&buf, le, [3]uint16{0, 1, 1})
	_ = binary.Write(&buf, le, struct {
		Width, Height, Colors, Reserved uint8
		Planes, BitCount                uint16
		Size, Offset                    uint32
	}{
		Width:    uint8(size),
		Height:   uint8(size),
		Planes:   1,
		BitCount: 32,
		Size:     uint32(len(pngData)),
		Offset:   6 + 16,
	})
	buf.Write(pngData)
	return buf.Bytes()
}
