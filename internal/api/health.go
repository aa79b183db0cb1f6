// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/ManuGH/subcallback/internal/api/middleware"
	"github.com/ManuGH/subcallback/internal/log"
)

// audit starts an info event for an operator action, tagged with the caller.
func (s *Server) audit(r *http.Request, event string) *zerolog.Event {
	l := log.WithContext(r.Context(), s.logger)
	evt := l.Info().Str(log.FieldEvent, event).Str("remote_addr", r.RemoteAddr)
	if c := middleware.ClaimsFromContext(r.Context()); c != nil {
		evt = evt.Str("actor", c.Name)
	}
	return evt
}
