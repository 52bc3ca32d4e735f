package server

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/annoview/pkg/buildinfo"
	"github.com/matzehuels/annoview/pkg/errors"
)

// Response is the envelope of every JSON reply.
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorBody      `json:"error,omitempty"`
	Meta    Meta            `json:"meta"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// ID names the offending span or event of an integrity fault.
	ID string `json:"id,omitempty"`
}

// Meta carries version information.
type Meta struct {
	Protocol string `json:"protocol"`
	Version  string `json:"version"`
}

func meta() Meta {
	return Meta{Protocol: buildinfo.Protocol, Version: buildinfo.Version}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "encode response"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Success: true, Data: data, Meta: meta()})
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	body := &ErrorBody{
		Code:    string(code),
		Message: errors.UserMessage(err),
		ID:      errors.OffendingID(err),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusFor(code))
	_ = json.NewEncoder(w).Encode(Response{Error: body, Meta: meta()})
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidName, errors.ErrCodeInvalidFormat,
		errors.ErrCodeInvalidVizType, errors.ErrCodeMalformedDocument:
		return http.StatusBadRequest
	case errors.ErrCodeDocumentIntegrity:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeProtocol:
		return http.StatusConflict
	case errors.ErrCodeTransport:
		return http.StatusBadGateway
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

// CodeFor maps an HTTP status back to an error code.
func CodeFor(status int) errors.Code {
	switch status {
	case http.StatusNotFound:
		return errors.ErrCodeNotFound
	case http.StatusBadRequest:
		return errors.ErrCodeInvalidInput
	case http.StatusUnprocessableEntity:
		return errors.ErrCodeDocumentIntegrity
	case http.StatusConflict:
		return errors.ErrCodeProtocol
	case http.StatusNotImplemented:
		return errors.ErrCodeUnsupported
	default:
		if status >= 500 {
			return errors.ErrCodeTransport
		}
		return errors.ErrCodeInternal
	}
}
