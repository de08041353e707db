// Package frames prepares JPEG files for streaming by camlink-cli send.
//
// A frame on the wire is the text a browser canvas produces with
// toDataURL: "data:image/jpeg;base64," followed by the JPEG bytes.
package frames

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os"

	"github.com/nfnt/resize"
)

// DataURLPrefix starts every frame.
const DataURLPrefix = "data:image/jpeg;base64,"

// DefaultQuality matches the web client's canvas encoder setting.
const DefaultQuality = 50

// ErrNoFrames is returned when no input files were given.
var ErrNoFrames = errors.New("frames: no input files")

// Frame is one prepared frame.
type Frame struct {
	Source string
	Width  int
	Height int
	Data   string
}

// DataURL encodes JPEG bytes as a frame payload.
func DataURL(jpegData []byte) string {
	return DataURLPrefix + base64.StdEncoding.EncodeToString(jpegData)
}

// Prepare decodes a JPEG, downscales it to width when width is positive
// and smaller than the image, and re-encodes it at quality.
func Prepare(data []byte, width, quality int) (image.Point, []byte, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return image.Point{}, nil, fmt.Errorf("decode jpeg: %w", err)
	}
	size := img.Bounds().Size()
	if width <= 0 || width >= size.X {
		if quality <= 0 {
			return size, data, nil
		}
	} else {
		// Height 0 keeps the aspect ratio.
		img = resize.Resize(uint(width), 0, img, resize.Lanczos3)
		size = img.Bounds().Size()
	}
	if quality <= 0 {
		quality = DefaultQuality
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return image.Point{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return size, buf.Bytes(), nil
}

// LoadFiles reads and prepares every path in order.
func LoadFiles(paths []string, width, quality int) ([]Frame, error) {
	if len(paths) == 0 {
		return nil, ErrNoFrames
	}
	out := make([]Frame, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		size, encoded, err := Prepare(data, width, quality)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		out = append(out, Frame{Source: p, Width: size.X, Height: size.Y, Data: DataURL(encoded)})
	}
	return out, nil
}
