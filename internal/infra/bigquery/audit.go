package bigquery

import (
	"context"
	"encoding/json"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"

	"github.com/obiorah-dev/bankrecon/internal/logger"
)

// RecordAudit writes an audit event. Audit failures are logged and
// swallowed; they must never fail the operation they describe.
func (s *Store) RecordAudit(ctx context.Context, entityType, entityID, action string, detail any) {
	log := logger.FromContext(ctx)

	row := &AuditEventRow{
		EventID:    uuid.NewString(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		CreatedTS:  time.Now(),
	}
	if detail != nil {
		payload, err := json.Marshal(detail)
		if err != nil {
			log.Warn().Err(err).Str("action", action).Msg("audit detail marshal failed")
		} else {
			row.Detail = bigquery.NullJSON{JSONVal: string(payload), Valid: true}
		}
	}

	if err := s.table(auditTable).Inserter().Put(ctx, row); err != nil {
		log.Warn().
			Err(err).
			Str("entity_type", entityType).
			Str("entity_id", entityID).
			Str("action", action).
			Msg("audit insert failed")
	}
}
