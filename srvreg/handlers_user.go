package srvreg

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type createUserBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullname"`
	Role     string `json:"role"`
}

// CreateUserHandler creates a new account.
func (sr *ServiceRegistry) CreateUserHandler(req *Request) (*Response, error) {
	var body createUserBody
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		sr.logger.Info("Failed to parse body", "error", err.Error())
		return errorResponse(http.StatusUnprocessableEntity, "Invalid body format: "+err.Error()),
			fmt.Errorf("invalid body format")
	}

	user, dbErr := sr.repository.CreateUser(body.Username, body.Password, body.FullName, body.Role)
	if dbErr != nil {
		return repoErrorResponse(dbErr)
	}
	return jsonResponse(http.StatusCreated, user), nil
}

type loginBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginHandler checks a username/password pair and returns the account.
// Session management is the form layer's concern; the core only vouches for
// the identity.
func (sr *ServiceRegistry) LoginHandler(req *Request) (*Response, error) {
	var body loginBody
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		sr.logger.Info("Failed to parse body", "error", err.Error())
		return errorResponse(http.StatusUnprocessableEntity, "Invalid body format: "+err.Error()),
			fmt.Errorf("invalid body format")
	}

	user, dbErr := sr.repository.Authenticate(body.Username, body.Password)
	if dbErr != nil {
		return repoErrorResponse(dbErr)
	}
	return jsonResponse(http.StatusOK, user), nil
}

// GetUserHandler returns one account.
func (sr *ServiceRegistry) GetUserHandler(req *Request) (*Response, error) {
	id, ok := pathID(req.Path, 2)
	if !ok {
		return errorResponse(http.StatusBadRequest, "Invalid user id"), fmt.Errorf("invalid path id")
	}
	user, dbErr := sr.repository.GetUser(id)
	if dbErr != nil {
		return repoErrorResponse(dbErr)
	}
	return jsonResponse(http.StatusOK, user), nil
}

type uploadSignatureBody struct {
	Signature []byte `json:"signature"`
}

// UploadSignatureHandler replaces the account's stored profile signature.
func (sr *ServiceRegistry) UploadSignatureHandler(req *Request) (*Response, error) {
	id, ok := pathID(req.Path, 2)
	if !ok {
		return errorResponse(http.StatusBadRequest, "Invalid user id"), fmt.Errorf("invalid path id")
	}

	var body uploadSignatureBody
	if err := json.Unmarshal([]byte(req.Body), &body); err != nil {
		sr.logger.Info("Failed to parse body", "error", err.Error())
		return errorResponse(http.StatusUnprocessableEntity, "Invalid body format: "+err.Error()),
			fmt.Errorf("invalid body format")
	}

	user, dbErr := sr.repository.UpdateSignature(id, body.Signature)
	if dbErr != nil {
		return repoErrorResponse(dbErr)
	}
	return jsonResponse(http.StatusOK, user), nil
}
