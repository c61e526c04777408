package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/aixiera/phosphene-web/models"
)

// maxErrorBody caps how much of a failure body is read looking for detail
const maxErrorBody = 64 * 1024

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

type SimulatorService struct {
	client ClientInterface
}

func NewSimulatorService(client ClientInterface) *SimulatorService {
	return &SimulatorService{
		client: client,
	}
}

// Simulate uploads an image to POST /simulate and returns one Percept per implant.
// The request is sent once; failures come back as *models.APIError,
// *models.NetworkError or *models.DecodeError
func (s *SimulatorService) Simulate(ctx context.Context, upload *models.Upload) (map[models.Implant]*models.Percept, error) {
	if upload == nil || len(upload.Data) == 0 {
		return nil, &models.ValidationError{Field: "file", Message: "no image selected"}
	}

	body, contentType, err := encodeUpload(upload)
	if err != nil {
		return nil, err
	}

	req, err := s.client.NewRequest(ctx, http.MethodPost, "/simulate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(resp)
	}

	var simResp models.SimulateResponse
	if err := json.NewDecoder(resp.Body).Decode(&simResp); err != nil {
		return nil, &models.DecodeError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	percepts, err := simResp.Percepts()
	if err != nil {
		return nil, &models.DecodeError{Err: err}
	}

	return percepts, nil
}

// Health checks GET /health
func (s *SimulatorService) Health(ctx context.Context) (*models.HealthResponse, error) {
	req, err := s.client.NewRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}

	var health models.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, &models.DecodeError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}

	return &health, nil
}

// encodeUpload writes the image as the multipart field "file", keeping its content type
// so the backend can tell it is an image
func encodeUpload(upload *models.Upload) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	filename := upload.Filename
	if filename == "" {
		filename = "upload"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := part.Write(upload.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write form part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close form: %w", err)
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}

func apiError(resp *http.Response) *models.APIError {
	apiErr := &models.APIError{
		StatusCode: resp.StatusCode,
		RequestID:  resp.Header.Get("X-Request-ID"),
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}

	var errResp models.ErrorResponse
	if json.Unmarshal(data, &errResp) == nil {
		apiErr.Message = errResp.DetailText()
	}
	return apiErr
}
