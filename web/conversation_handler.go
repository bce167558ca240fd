package web

import (
	"net/http"

	"github.com/immoalbania/immo/types"
)

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	in, err := decode[types.Login](r)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	out, err := h.Service.Login(r.Context(), in)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, out, http.StatusOK)
}

func (h *Handler) conversations(w http.ResponseWriter, r *http.Request) {
	cc, err := h.Service.Conversations(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, cc, http.StatusOK)
}

func (h *Handler) openConversation(w http.ResponseWriter, r *http.Request) {
	in, err := decode[types.OpenConversation](r)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	out, err := h.Service.OpenConversation(r.Context(), in)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, out, http.StatusOK)
}

func (h *Handler) markConversationRead(w http.ResponseWriter, r *http.Request) {
	in := types.MarkConversationRead{
		ConversationID: r.PathValue("conversationID"),
	}

	updated, err := h.Service.MarkConversationRead(r.Context(), in)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, map[string]int64{"updated": updated}, http.StatusOK)
}

func (h *Handler) unreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.Service.UnreadCount(r.Context())
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, map[string]int64{"unreadCount": count}, http.StatusOK)
}
