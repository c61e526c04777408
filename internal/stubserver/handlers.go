package stubserver

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
	"time"

	"github.com/aixiera/phosphene-web/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// validationDetail mirrors the list-shaped detail a FastAPI app sends for a missing field
type validationDetail struct {
	Type string   `json:"type"`
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, map[string]any{"detail": detail})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.requests.WithLabelValues("health", "ok").Inc()
	writeJSON(w, http.StatusOK, models.HealthResponse{OK: true})
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	logger := s.logger.With(zap.String("request_id", RequestID(r.Context())))

	if err := r.ParseMultipartForm(maxUpload); err != nil {
		logger.Debug("Rejected upload without multipart body", zap.Error(err))
		s.requests.WithLabelValues("simulate", "invalid").Inc()
		writeDetail(w, http.StatusUnprocessableEntity, []validationDetail{{
			Type: "missing",
			Loc:  []string{"body", "file"},
			Msg:  "Field required",
		}})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.requests.WithLabelValues("simulate", "invalid").Inc()
		writeDetail(w, http.StatusUnprocessableEntity, []validationDetail{{
			Type: "missing",
			Loc:  []string{"body", "file"},
			Msg:  "Field required",
		}})
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		logger.Info("Rejected non-image upload", zap.String("filename", header.Filename), zap.String("content_type", contentType))
		s.requests.WithLabelValues("simulate", "bad_request").Inc()
		writeDetail(w, http.StatusBadRequest, "Please upload an image file.")
		return
	}

	start := time.Now()
	img, _, err := image.Decode(file)
	if err != nil {
		logger.Warn("Failed to decode upload", zap.String("filename", header.Filename), zap.Error(err))
		s.requests.WithLabelValues("simulate", "error").Inc()
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp, err := renderAll(img)
	if err != nil {
		logger.Error("Failed to render percepts", zap.Error(err))
		s.requests.WithLabelValues("simulate", "error").Inc()
		writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.duration.Observe(time.Since(start).Seconds())

	logger.Info("Simulated upload",
		zap.String("filename", header.Filename),
		zap.Int64("bytes", header.Size),
		zap.Duration("elapsed", time.Since(start)))
	s.requests.WithLabelValues("simulate", "ok").Inc()
	writeJSON(w, http.StatusOK, resp)
}

// renderAll renders every implant concurrently into the response body shape
func renderAll(img image.Image) (map[models.Implant]string, error) {
	encoded := make([]string, len(models.Implants))

	var g errgroup.Group
	for i, implant := range models.Implants {
		g.Go(func() error {
			data, err := Render(img, implant)
			if err != nil {
				return fmt.Errorf("%s: %w", implant, err)
			}
			encoded[i] = base64.StdEncoding.EncodeToString(data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := make(map[models.Implant]string, len(models.Implants))
	for i, implant := range models.Implants {
		resp[implant] = encoded[i]
	}
	return resp, nil
}
