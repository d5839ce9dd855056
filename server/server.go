// Package server exposes the record-keeping service over HTTP. It converts
// requests into service-registry requests, serves rendered PDF reports, and
// owns startup/shutdown of the listener.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"

	"github.com/rizqinugroho/equipcheck/logger"
	"github.com/rizqinugroho/equipcheck/report"
	"github.com/rizqinugroho/equipcheck/repository"
	"github.com/rizqinugroho/equipcheck/srvreg"
)

// WebServer handles HTTP requests
type WebServer struct {
	httpAddr        string
	server          *http.Server
	logger          logger.Logger
	startTime       time.Time
	serviceRegistry *srvreg.ServiceRegistry
	repository      *repository.Repository
	renderer        *report.Renderer
}

// NewWebServer creates a new web server
func NewWebServer(httpPort string, log logger.Logger, serviceRegistry *srvreg.ServiceRegistry, repo *repository.Repository, renderer *report.Renderer) *WebServer {
	mux := http.NewServeMux()

	ws := &WebServer{
		httpAddr:        ":" + httpPort,
		logger:          log,
		startTime:       time.Now(),
		serviceRegistry: serviceRegistry,
		repository:      repo,
		renderer:        renderer,
	}

	// Register routes
	mux.HandleFunc("/", ws.handleRoot)
	mux.HandleFunc("/health", ws.handleHealth)
	// Record endpoints dispatch through the service registry
	mux.HandleFunc("/checklist", ws.handleServiceAPI)
	mux.HandleFunc("/checklist/", ws.handleServiceAPI)
	mux.HandleFunc("/session", ws.handleServiceAPI)
	mux.HandleFunc("/session/", ws.handleServiceAPI)
	mux.HandleFunc("/calibration", ws.handleServiceAPI)
	mux.HandleFunc("/calibration/", ws.handleServiceAPI)
	mux.HandleFunc("/user", ws.handleServiceAPI)
	mux.HandleFunc("/user/", ws.handleServiceAPI)
	// PDF reports are served directly; binary payloads don't go through the
	// registry's JSON envelope
	mux.HandleFunc("/report/", ws.handleReport)

	// The form frontend is served from a different origin during development
	handler := cors.AllowAll().Handler(mux)

	ws.server = &http.Server{
		Addr:         ws.httpAddr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return ws
}

// Start starts the web server
func (ws *WebServer) Start() error {
	ws.logger.Info("Starting web server", "addr", ws.httpAddr)
	go func() {
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ws.logger.Error("web server error", "err", err)
		}
	}()
	return nil
}

// Shutdown gracefully shuts down the web server
func (ws *WebServer) Shutdown(ctx context.Context) error {
	ws.logger.Info("Shutting down web server")
	return ws.server.Shutdown(ctx)
}

// JSONError writes a JSON error body with the given status code.
func JSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// handleRoot shows service status
func (ws *WebServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		JSONError(w, "Not found", http.StatusNotFound)
		return
	}
	if r.Method != http.MethodGet {
		JSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte("<h1>Equipment Checklist &amp; Calibration Records</h1>"))
	w.Write([]byte("<p>Uptime: " + time.Since(ws.startTime).String() + "</p>"))
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleServiceAPI dispatches record operations through the service registry.
func (ws *WebServer) handleServiceAPI(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	request, err := srvreg.ConvertHttpRequest(r, requestID)
	if err != nil {
		JSONError(w, "Failed to convert request: "+err.Error(), http.StatusUnprocessableEntity)
		ws.logger.Error("Failed to convert HTTP request", "err", err)
		return
	}

	response, err := request.GenerateResponse(ws.serviceRegistry)
	if err != nil {
		// Handler errors are already reflected in the response body; log the
		// pair and fall through to writing the response.
		ws.logger.Info("Request failed",
			"request_id", requestID,
			"method", request.Method,
			"path", request.Path,
			"status", response.StatusCode,
			"err", err,
		)
	} else {
		ws.logger.Debug("Request served",
			"request_id", requestID,
			"method", request.Method,
			"path", request.Path,
			"status", response.StatusCode,
		)
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(response.StatusCode)
	w.Write([]byte(response.Body))
}

// handleReport serves rendered PDF documents:
//
//	GET /report/checklist/{id}
//	GET /report/calibration/{id}
//	GET /report/session?sub_area=...&date=...&shift=...
func (ws *WebServer) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		JSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pathParts := strings.Split(strings.TrimSuffix(r.URL.Path, "/"), "/")
	if len(pathParts) < 3 {
		JSONError(w, "Invalid report path", http.StatusBadRequest)
		return
	}

	switch pathParts[2] {
	case "checklist", "calibration":
		if len(pathParts) != 4 {
			JSONError(w, "Invalid report path", http.StatusBadRequest)
			return
		}
		id, err := strconv.ParseUint(pathParts[3], 10, 32)
		if err != nil {
			JSONError(w, "Invalid record id", http.StatusBadRequest)
			return
		}
		ws.serveRecordReport(w, pathParts[2], uint(id))
	case "session":
		subArea := r.URL.Query().Get("sub_area")
		date := r.URL.Query().Get("date")
		shift := r.URL.Query().Get("shift")
		if subArea == "" || date == "" || shift == "" {
			JSONError(w, "sub_area, date and shift are required", http.StatusBadRequest)
			return
		}
		ws.serveSessionReport(w, subArea, date, shift)
	default:
		JSONError(w, "Unknown report kind", http.StatusNotFound)
	}
}

func (ws *WebServer) serveRecordReport(w http.ResponseWriter, kind string, id uint) {
	var (
		pdfBytes  []byte
		renderErr error
	)
	switch kind {
	case "checklist":
		record, dbErr := ws.repository.GetChecklist(id)
		if dbErr != nil {
			ws.writeRepoError(w, dbErr)
			return
		}
		pdfBytes, renderErr = ws.renderer.Checklist(record)
	case "calibration":
		record, dbErr := ws.repository.GetCalibration(id)
		if dbErr != nil {
			ws.writeRepoError(w, dbErr)
			return
		}
		pdfBytes, renderErr = ws.renderer.Calibration(record)
	}
	ws.writePDF(w, fmt.Sprintf("%s-%d.pdf", kind, id), pdfBytes, renderErr)
}

func (ws *WebServer) serveSessionReport(w http.ResponseWriter, subArea, date, shift string) {
	records, dbErr := ws.repository.SessionRecords(subArea, date, shift)
	if dbErr != nil {
		ws.writeRepoError(w, dbErr)
		return
	}
	ids := make([]uint, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
	}
	session := &repository.BatchSession{
		SubArea:   subArea,
		Date:      date,
		Shift:     shift,
		RecordIDs: ids,
		Records:   records,
	}
	pdfBytes, renderErr := ws.renderer.BatchSession(session)
	ws.writePDF(w, fmt.Sprintf("session-%s-%s.pdf", date, shift), pdfBytes, renderErr)
}

func (ws *WebServer) writeRepoError(w http.ResponseWriter, dbErr *repository.RepositoryError) {
	status := http.StatusInternalServerError
	switch dbErr.Code {
	case repository.ErrCodeNotFound:
		status = http.StatusNotFound
	case repository.ErrCodeValidation:
		status = http.StatusBadRequest
	}
	JSONError(w, dbErr.Message, status)
}

func (ws *WebServer) writePDF(w http.ResponseWriter, filename string, pdfBytes []byte, renderErr error) {
	if renderErr != nil {
		ws.logger.Error("Failed to render report", "err", renderErr)
		JSONError(w, "Failed to render report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename=\""+filename+"\"")
	w.WriteHeader(http.StatusOK)
	w.Write(pdfBytes)
}
