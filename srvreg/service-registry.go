// Package srvreg is the service registry: the table of record-keeping
// operations the web server dispatches into. Handlers take a *Request,
// call the repository, and map repository error codes onto HTTP statuses.
package srvreg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rizqinugroho/equipcheck/logger"
	"github.com/rizqinugroho/equipcheck/repository"
)

var defaultHeaders = map[string]string{"Content-Type": "application/json"}

// Request represents the client's original HTTP request.
type Request struct {
	Method     string            `json:"method"`
	Path       string            `json:"path"`
	Query      map[string]string `json:"query,omitempty"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
	RemoteAddr string            `json:"remote_addr"`
	RequestID  string            `json:"request_id"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Response represents the computed response for a request.
type Response struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
	Error      string            `json:"error,omitempty"`
}

// ParseBody attempts to parse the Response's Body field as JSON and returns
// the structured data, or nil if the body is not valid JSON.
func (r *Response) ParseBody() interface{} {
	if r.Body == "" {
		return nil
	}
	var bodyMap map[string]interface{}
	if err := json.Unmarshal([]byte(r.Body), &bodyMap); err == nil {
		return bodyMap
	}
	var bodyArray []interface{}
	if err := json.Unmarshal([]byte(r.Body), &bodyArray); err == nil {
		return bodyArray
	}
	return nil
}

// ServiceHandler is a function type for service handlers
type ServiceHandler func(*Request) (*Response, error)

// RouteKey is used to uniquely identify a route
type RouteKey struct {
	Method string
	Path   string
}

// ServiceRegistry manages all service handlers
type ServiceRegistry struct {
	handlers    map[RouteKey]ServiceHandler
	exactRoutes map[RouteKey]bool
	mu          sync.RWMutex
	repository  *repository.Repository
	logger      logger.Logger
}

// NewServiceRegistry creates a new service registry
func NewServiceRegistry(repo *repository.Repository, log logger.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		handlers:    make(map[RouteKey]ServiceHandler),
		exactRoutes: make(map[RouteKey]bool),
		repository:  repo,
		logger:      log,
	}
}

// RegisterHandler registers a new service handler
func (sr *ServiceRegistry) RegisterHandler(method, path string, isExactPath bool, handler ServiceHandler) {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	key := RouteKey{Method: strings.ToUpper(method), Path: path}
	sr.handlers[key] = handler
	sr.exactRoutes[key] = isExactPath
}

// GetHandlerForPath finds the appropriate handler for a given path and
// reports whether one was found.
func (sr *ServiceRegistry) GetHandlerForPath(method, path string) (ServiceHandler, bool) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	key := RouteKey{Method: strings.ToUpper(method), Path: path}
	if handler, ok := sr.handlers[key]; ok && sr.exactRoutes[key] {
		return handler, true
	}

	for routeKey, handler := range sr.handlers {
		if routeKey.Method != strings.ToUpper(method) {
			continue
		}
		if sr.exactRoutes[routeKey] {
			continue
		}
		if matchPath(routeKey.Path, path) {
			return handler, true
		}
	}

	return nil, false
}

// matchPath does simple pattern matching for routes.
// It supports patterns like "/checklist/:id" matching "/checklist/42".
func matchPath(pattern, path string) bool {
	patternParts := strings.Split(pattern, "/")
	pathParts := strings.Split(path, "/")

	if len(patternParts) != len(pathParts) {
		return false
	}

	for i := range patternParts {
		if strings.HasPrefix(patternParts[i], ":") {
			continue
		}
		if patternParts[i] != pathParts[i] {
			return false
		}
	}

	return true
}

// RegisterDefaultServices sets up the record-keeping endpoints.
func (sr *ServiceRegistry) RegisterDefaultServices() {
	// Checklist
	sr.RegisterHandler("POST", "/checklist", true, sr.CreateChecklistHandler)
	sr.RegisterHandler("POST", "/checklist/batch", true, sr.CreateChecklistBatchHandler)
	sr.RegisterHandler("GET", "/checklist", true, sr.ListChecklistsHandler)
	sr.RegisterHandler("GET", "/checklist/:id", false, sr.GetChecklistHandler)
	sr.RegisterHandler("POST", "/checklist/:id/approve", false, sr.ApproveChecklistHandler)
	// Batch sessions
	sr.RegisterHandler("GET", "/session", true, sr.PendingBatchSessionsHandler)
	sr.RegisterHandler("POST", "/session/approve", true, sr.ApproveBatchHandler)
	// Calibration
	sr.RegisterHandler("POST", "/calibration", true, sr.CreateCalibrationHandler)
	sr.RegisterHandler("GET", "/calibration", true, sr.ListCalibrationsHandler)
	sr.RegisterHandler("GET", "/calibration/:id", false, sr.GetCalibrationHandler)
	sr.RegisterHandler("POST", "/calibration/:id/approve", false, sr.ApproveCalibrationHandler)
	// Users
	sr.RegisterHandler("POST", "/user", true, sr.CreateUserHandler)
	sr.RegisterHandler("POST", "/user/login", true, sr.LoginHandler)
	sr.RegisterHandler("GET", "/user/:id", false, sr.GetUserHandler)
	sr.RegisterHandler("POST", "/user/:id/signature", false, sr.UploadSignatureHandler)
}

// GenerateResponse executes the request and generates a response
func (req *Request) GenerateResponse(services *ServiceRegistry) (*Response, error) {
	handler, found := services.GetHandlerForPath(req.Method, req.Path)
	if !found {
		return &Response{
			StatusCode: http.StatusNotFound,
			Headers:    map[string]string{"Content-Type": "text/plain"},
			Body:       fmt.Sprintf("Service not found for %s %s", req.Method, req.Path),
		}, nil
	}
	return handler(req)
}

// ConvertHttpRequest converts an http.Request to a registry Request.
func ConvertHttpRequest(r *http.Request, requestID string) (*Request, error) {
	headers := make(map[string]string)
	for name, values := range r.Header {
		if len(values) > 0 {
			headers[name] = values[0]
		}
	}

	query := make(map[string]string)
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			query[name] = values[0]
		}
	}

	body := ""
	if r.Body != nil {
		bodyBytes, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		body = compactJSON(strings.TrimSpace(string(bodyBytes)))
	}

	return &Request{
		Method:     r.Method,
		Path:       strings.TrimSuffix(r.URL.Path, "/"),
		Query:      query,
		Headers:    headers,
		Body:       body,
		RemoteAddr: r.RemoteAddr,
		RequestID:  requestID,
		Timestamp:  time.Now(),
	}, nil
}

func compactJSON(body string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(body)); err != nil {
		return strings.TrimSpace(body)
	}
	return buf.String()
}
