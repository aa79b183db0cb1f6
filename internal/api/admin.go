// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ManuGH/subcallback/internal/domain/subscription/lifecycle"
	"github.com/ManuGH/subcallback/internal/domain/subscription/model"
	"github.com/ManuGH/subcallback/internal/log"
)

type subscriptionList struct {
	Count         int            `json:"count"`
	Subscriptions []model.Record `json:"subscriptions"`
}

func (s *Server) handleListSubscriptions(w http.ResponseWriter, _ *http.Request) {
	recs := s.deps.Manager.Sessions()
	writeJSON(w, http.StatusOK, subscriptionList{Count: len(recs), Subscriptions: recs})
}

func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !model.IsSafeSubscriptionID(id) {
		writeError(w, http.StatusBadRequest, "invalid subscription id")
		return
	}
	rec, err := s.deps.Manager.Get(model.SubscriptionID(id))
	if errors.Is(err, lifecycle.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "subscription not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleTerminateSubscription(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !model.IsSafeSubscriptionID(id) {
		writeError(w, http.StatusBadRequest, "invalid subscription id")
		return
	}
	if err := s.deps.Manager.Terminate(model.SubscriptionID(id)); err != nil {
		if errors.Is(err, lifecycle.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "subscription not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.audit(r, "subscription.terminated").Str(log.FieldSubscriptionID, id).Msg("subscription terminated by operator")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleConfigReload(w http.ResponseWriter, r *http.Request) {
	if s.deps.Reloader == nil {
		writeError(w, http.StatusNotImplemented, "config reload not available")
		return
	}
	if err := s.deps.Reloader.Reload(r.Context()); err != nil {
		s.audit(r, "config.reload_failed").Err(err).Msg("config reload rejected")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.audit(r, "config.reloaded").Msg("config reloaded by operator")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}
