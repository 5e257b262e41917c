// Package qrcode renders QR images as PNG data URIs.
package qrcode

import (
	"encoding/base64"

	goqrcode "github.com/skip2/go-qrcode"
)

const dataURIPrefix = "data:image/png;base64,"

type Encoder struct {
	size  int
	level goqrcode.RecoveryLevel
}

func NewEncoder(size int) *Encoder {
	if size <= 0 {
		size = 256
	}
	return &Encoder{size: size, level: goqrcode.Medium}
}

func (e *Encoder) DataURI(content string) (string, error) {
	png, err := goqrcode.Encode(content, e.level, e.size)
	if err != nil {
		return "", err
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}
