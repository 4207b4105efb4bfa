package certificates

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/neurobridge-certificates/internal/domain/certificates"
	"github.com/yungbote/neurobridge-certificates/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-certificates/internal/platform/logger"
)

// LedgerRepo is the table-level access to certificate_ledger. There is no
// delete; updates go through the ledger aggregate.
type LedgerRepo interface {
	GetByID(dbc dbctx.Context, certificateID uuid.UUID) (*certificates.LedgerEntry, error)
	GetByEnrollmentID(dbc dbctx.Context, enrollmentID uuid.UUID) (*certificates.LedgerEntry, error)
	GetByHash(dbc dbctx.Context, hash string) (*certificates.LedgerEntry, error)
	// CreateIfAbsent inserts row unless a row for the same enrollment exists.
	// It reports whether this call inserted.
	CreateIfAbsent(dbc dbctx.Context, row *certificates.LedgerEntry) (bool, error)
}

type ledgerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLedgerRepo(db *gorm.DB, baseLog *logger.Logger) LedgerRepo {
	return &ledgerRepo{db: db, log: baseLog.With("repo", "CertificateLedgerRepo")}
}

func (r *ledgerRepo) GetByID(dbc dbctx.Context, certificateID uuid.UUID) (*certificates.LedgerEntry, error) {
	return r.first(dbc, "certificate_id = ?", certificateID)
}

func (r *ledgerRepo) GetByEnrollmentID(dbc dbctx.Context, enrollmentID uuid.UUID) (*certificates.LedgerEntry, error) {
	return r.first(dbc, "enrollment_id = ?", enrollmentID)
}

func (r *ledgerRepo) GetByHash(dbc dbctx.Context, hash string) (*certificates.LedgerEntry, error) {
	return r.first(dbc, "certificate_hash = ?", hash)
}

func (r *ledgerRepo) first(dbc dbctx.Context, where string, arg any) (*certificates.LedgerEntry, error) {
	var rows []*certificates.LedgerEntry
	if err := dbc.DB(r.db).Where(where, arg).Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *ledgerRepo) CreateIfAbsent(dbc dbctx.Context, row *certificates.LedgerEntry) (bool, error) {
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "enrollment_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
