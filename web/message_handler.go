package web

import (
	"net/http"

	"github.com/immoalbania/immo/types"
)

func (h *Handler) messages(w http.ResponseWriter, r *http.Request) {
	in := types.ListMessages{
		ConversationID: r.PathValue("conversationID"),
	}

	mm, err := h.Service.Messages(r.Context(), in)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, mm, http.StatusOK)
}

func (h *Handler) createMessage(w http.ResponseWriter, r *http.Request) {
	in, err := decode[types.SendMessage](r)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	in.ConversationID = r.PathValue("conversationID")

	msg, err := h.Service.SendMessage(r.Context(), in)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	h.respond(w, msg, http.StatusCreated)
}
