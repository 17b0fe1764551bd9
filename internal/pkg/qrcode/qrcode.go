package qrcode

import (
	"errors"

	goqrcode "github.com/skip2/go-qrcode"
)

// Size is the edge length of rendered codes in pixels
const Size = 320

// PNG renders data as a QR code PNG with medium error correction.
func PNG(data string) ([]byte, error) {
	if data == "" {
		return nil, errors.New("qrcode: empty content")
	}
	return goqrcode.Encode(data, goqrcode.Medium, Size)
}
