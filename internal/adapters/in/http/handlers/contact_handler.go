package handlers

import (
	"context"
	"net/http"

	contactdom "github.com/MouadHammadi12/ZOHIRYAIDAN/internal/domain/contact"
)

// ContactSubmitter stores and forwards a contact message.
type ContactSubmitter interface {
	Submit(ctx context.Context, m contactdom.Message) (contactdom.Message, error)
}

// ContactHandler accepts the contact form.
//
//	POST /api/contact
type ContactHandler struct {
	uc ContactSubmitter
}

func NewContactHandler(uc ContactSubmitter) http.Handler {
	return &ContactHandler{uc: uc}
}

func (h *ContactHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var in contactdom.Message
	if err := decodeJSON(w, r, &in); err != nil {
		badRequest(w, "invalid_json")
		return
	}
	in.ID = ""

	saved, err := h.uc.Submit(r.Context(), in)
	if err != nil {
		// stored but not mailed: the message is not lost, tell the client so
		if saved.ID != "" {
			writeJSON(w, http.StatusAccepted, map[string]any{"id": saved.ID, "mailed": false})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": saved.ID, "mailed": true})
}
