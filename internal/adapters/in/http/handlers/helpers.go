// internal/adapters/in/http/handlers/helpers.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	adminapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/admin"
	cartapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/cart"
	sessionapp "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/application/session"
	contactdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/contact"
	productdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/product"
	sessiondom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/session"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/errx"
	"github.com/MouadHammadi12/ZOHIRYAIDAN/internal/infra/logx"
)

// maxBodyBytes leaves room for a base64 data URI of the largest inline image.
const maxBodyBytes = 4 << 20

// ------------------------------
// Response helpers
// ------------------------------

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error  string `json:"error"`
	Field  string `json:"field,omitempty"`
	Detail string `json:"detail,omitempty"`
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorBody{Error: msg})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeErr(w, http.StatusMethodNotAllowed, "method_not_allowed")
}

func notFound(w http.ResponseWriter) {
	writeErr(w, http.StatusNotFound, "not_found")
}

func badRequest(w http.ResponseWriter, msg string) {
	writeErr(w, http.StatusBadRequest, msg)
}

// writeError maps application errors onto status codes.
func writeError(w http.ResponseWriter, err error) {
	var (
		pv *productdom.ValidationError
		cf *contactdom.FieldError
	)
	switch {
	case errors.As(err, &pv):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation_error", Field: pv.Field, Detail: pv.Reason})
	case errors.As(err, &cf):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation_error", Field: cf.Field})
	case errors.Is(err, productdom.ErrInvalid),
		errors.Is(err, contactdom.ErrInvalid),
		errors.Is(err, cartapp.ErrInvalidArgument),
		errors.Is(err, adminapp.ErrInvalidArgument),
		errors.Is(err, sessionapp.ErrInvalidScope):
		badRequest(w, "invalid_argument")
	case errors.Is(err, productdom.ErrNotFound):
		notFound(w)
	case errors.Is(err, adminapp.ErrInFlight):
		writeErr(w, http.StatusConflict, "in_flight")
	case errors.Is(err, productdom.ErrConflict):
		writeErr(w, http.StatusConflict, "conflict")
	case errors.Is(err, sessiondom.ErrExpired):
		writeErr(w, http.StatusUnauthorized, "session_expired")
	case errors.Is(err, sessiondom.ErrDenied):
		writeErr(w, http.StatusUnauthorized, "invalid_credentials")
	case errors.Is(err, errx.ErrTransport):
		logx.Error().Err(err).Msg("[http] upstream failure")
		writeErr(w, errx.StatusOf(err), "upstream_error")
	default:
		logx.Error().Err(err).Msg("[http] internal error")
		writeErr(w, errx.StatusOf(err), "internal_error")
	}
}

// decodeJSON reads a bounded JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// pathID returns the single segment after prefix ("" when absent or nested).
func pathID(path, prefix string) string {
	rest, ok := strings.CutPrefix(path, prefix)
	if !ok {
		return ""
	}
	rest = strings.Trim(rest, "/")
	if rest == "" || strings.Contains(rest, "/") {
		return ""
	}
	return rest
}
