package models

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"sync"
)

// DataURIPrefix turns a base64 PNG payload into an inline image reference
const DataURIPrefix = "data:image/png;base64,"

// Percept is one displayable simulation output
type Percept struct {
	// DataURI is the payload as the backend sent it, prefixed with DataURIPrefix
	DataURI string
	// PNG holds the decoded bytes that get written to disk on download
	PNG []byte

	once   sync.Once
	img    image.Image
	imgErr error
}

// NewPercept builds a Percept from a base64-encoded PNG payload
func NewPercept(payload string) (*Percept, error) {
	if payload == "" {
		return nil, fmt.Errorf("empty payload")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return &Percept{
		DataURI: DataURIPrefix + payload,
		PNG:     data,
	}, nil
}

// PerceptFromPNG wraps raw PNG bytes
func PerceptFromPNG(data []byte) *Percept {
	return &Percept{
		DataURI: DataURIPrefix + base64.StdEncoding.EncodeToString(data),
		PNG:     data,
	}
}

// Image decodes the PNG on first use
func (p *Percept) Image() (image.Image, error) {
	p.once.Do(func() {
		p.img, p.imgErr = png.Decode(bytes.NewReader(p.PNG))
	})
	return p.img, p.imgErr
}
