package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/assesslab/assess-core/internal/audit"
)

// auditLog records an administrative action. Audit failures are logged but
// never fail the request that triggered them.
func (s *Server) auditLog(ctx context.Context, action, entity, entityID, actorID string, details map[string]any) {
	if s.audit == nil {
		return
	}
	entry := &audit.Entry{
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		ActorID:  actorID,
		Details:  details,
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.logger.Error("audit write failed", "error", err, "action", action, "entity", entity)
	}
}

// handleListAuditLog returns a filtered page of the audit trail.
func (s *Server) handleListAuditLog(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeNotFound(w, "audit log not enabled")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:   q.Get("action"),
		Entity:   q.Get("entity"),
		EntityID: q.Get("entity_id"),
		ActorID:  q.Get("actor_id"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "offset must be an integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("list audit log failed", "error", err)
		writeInternalError(w, "failed to list audit log")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
