package handler

import (
	"net/http"

	"contentnode/internal/domain"
	"contentnode/internal/service"
)

// channelParam returns the required channel query parameter
func channelParam(r *http.Request) (int, error) {
	id, err := queryInt(r, "channel")
	if err != nil {
		return 0, err
	}
	if id == 0 {
		return 0, badRequest("channel required")
	}
	return id, nil
}

// Localize creates a localized copy of the object in the channel
func (h *Handler) Localize(w http.ResponseWriter, r *http.Request) {
	t, id, err := pathObject(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	channelID, err := channelParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	local, err := h.channels.Localize(r.Context(), t, id, channelID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.Info("Localized object", "object", local.Describe(), "channel", channelID)
	h.writeObject(w, r.Context(), local, http.StatusCreated)
}

// Unlocalize removes the localized copy from the channel
func (h *Handler) Unlocalize(w http.ResponseWriter, r *http.Request) {
	t, id, err := pathObject(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	channelID, err := channelParam(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.channels.Unlocalize(r.Context(), t, id, channelID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetDisinherit returns the disinheritance of the object
func (h *Handler) GetDisinherit(w http.ResponseWriter, r *http.Request) {
	t, id, err := pathObject(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	status, err := h.channels.DisinheritInfo(r.Context(), t, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, status, http.StatusOK)
}

// SetDisinherit changes the disinheritance of the object
func (h *Handler) SetDisinherit(w http.ResponseWriter, r *http.Request) {
	t, id, err := pathObject(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req service.DisinheritRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	status, err := h.channels.Disinherit(r.Context(), t, id, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, status, http.StatusOK)
}

// Variants returns the master and all localized copies of the object
func (h *Handler) Variants(w http.ResponseWriter, r *http.Request) {
	t, id, err := pathObject(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	variants, err := h.channels.Variants(r.Context(), t, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	objs := make([]domain.NodeObject, len(variants))
	for i, v := range variants {
		objs[i] = v
	}
	items, err := h.toREST(r.Context(), objs, fill(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, ListResponse{Items: items, NumItems: len(items)}, http.StatusOK)
}
