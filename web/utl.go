package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nicolasparada/go-errs"
	"github.com/nicolasparada/go-errs/httperrs"

	"github.com/immoalbania/immo/validator"
)

func (h *Handler) respond(w http.ResponseWriter, v any, statusCode int) {
	b, err := json.Marshal(v)
	if err != nil {
		h.respondErr(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write(b)
}

func (h *Handler) respondErr(w http.ResponseWriter, err error) {
	var v *validator.Validator
	if errors.As(err, &v) {
		h.respond(w, map[string]any{"error": "invalid input", "fields": v.Errors}, http.StatusBadRequest)
		return
	}

	statusCode := httperrs.Code(err)
	if statusCode == http.StatusInternalServerError {
		if !errors.Is(err, context.Canceled) {
			h.Logger.Error("internal server error", "err", err)
		}
		http.Error(w, "internal server error", statusCode)
		return
	}

	http.Error(w, err.Error(), statusCode)
}

func decode[T any](r *http.Request) (T, error) {
	var out T
	if err := json.NewDecoder(r.Body).Decode(&out); err != nil {
		return out, errs.InvalidArgumentError("malformed request body")
	}
	return out, nil
}
