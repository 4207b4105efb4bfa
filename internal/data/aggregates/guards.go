package aggregates

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-certificates/internal/platform/dbctx"
)

// CASGuard holds compare-and-set helpers for aggregate writes.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

func (g CASGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx == nil && g.db == nil {
		return nil, ValidationError("missing db transaction context")
	}
	return dbc.DB(g.db), nil
}

// UpdateIf updates the row keyed by idColumn=id only while guard still holds.
// It reports whether a row changed.
func (g CASGuard) UpdateIf(dbc dbctx.Context, table, idColumn string, id uuid.UUID, guard string, guardArgs []any, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table = strings.TrimSpace(table)
	idColumn = strings.TrimSpace(idColumn)
	if table == "" || idColumn == "" || id == uuid.Nil {
		return false, ValidationError("table, id column and id are required for UpdateIf")
	}
	if strings.TrimSpace(guard) == "" {
		return false, ValidationError("guard must not be empty")
	}
	res := db.Table(table).
		Where(idColumn+" = ?", id).
		Where(guard, guardArgs...).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RequireCASSuccess turns a lost compare-and-set into a conflict.
func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(strings.TrimSpace(message))
}
