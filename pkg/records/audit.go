package records

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/campusclinic/console/pkg/common/models"
)

// AuditEntries returns the audit trail scoped to one entity name + record id
// pair. Read-only and uncached: the audit surface fetches on demand.
func (s *Service) AuditEntries(ctx context.Context, entityName string, recordID int) ([]models.AuditLogEntry, error) {
	params := url.Values{}
	params.Set("entityName", entityName)
	params.Set("recordId", fmt.Sprintf("%d", recordID))

	var out []models.AuditLogEntry
	err := s.api.JSON(ctx, http.MethodGet, "/api/audit-logs?"+params.Encode(), nil, &out)
	return out, err
}
