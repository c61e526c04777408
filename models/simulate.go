package models

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
)

// Upload is the image file a user selected
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// LoadUpload reads an image file from disk. The content type comes from the
// extension and falls back to sniffing the bytes
func LoadUpload(path string) (*Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	return &Upload{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// SimulateResponse is the success body of POST /simulate
type SimulateResponse struct {
	AlphaAMS *string `json:"AlphaAMS"`
	ArgusII  *string `json:"ArgusII"`
	PRIMA    *string `json:"PRIMA"`
}

// Percepts decodes every payload. A missing key or bad base64 fails the whole response
func (r *SimulateResponse) Percepts() (map[Implant]*Percept, error) {
	payloads := map[Implant]*string{
		AlphaAMS: r.AlphaAMS,
		ArgusII:  r.ArgusII,
		PRIMA:    r.PRIMA,
	}

	percepts := make(map[Implant]*Percept, len(payloads))
	for _, key := range Implants {
		payload := payloads[key]
		if payload == nil {
			return nil, fmt.Errorf("response is missing %s", key)
		}
		p, err := NewPercept(*payload)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		percepts[key] = p
	}
	return percepts, nil
}

// ErrorResponse is the failure body the backend sends.
// FastAPI puts a string in detail for HTTPException and a list for validation errors
type ErrorResponse struct {
	Detail json.RawMessage `json:"detail,omitempty"`
}

// DetailText returns detail when it is a string
func (e *ErrorResponse) DetailText() string {
	var text string
	if err := json.Unmarshal(e.Detail, &text); err != nil {
		return ""
	}
	return text
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	OK bool `json:"ok"`
}
