package repos

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sakshampandey1901/Cite/internal/pkg/errs"
	"github.com/sakshampandey1901/Cite/internal/platform/logger"
	"github.com/sakshampandey1901/Cite/internal/types"
)

// BatchOutcome reports the fate of one item in a batch upsert.
type BatchOutcome struct {
	ChunkID uuid.UUID
	Err     error
}

// VerifyUpdate carries an optional human correction applied during
// verification. Nil fields keep the stored value.
type VerifyUpdate struct {
	Role      *types.RhetoricalRole
	TopicTags []string
}

type ChunkLabelRepo interface {
	// Upsert writes the label keyed by chunk_id. Re-upserting an
	// identical label is a no-op apart from updated_at. Fails with a
	// conflict kind when the referenced chunk does not exist.
	Upsert(ctx context.Context, tx *gorm.DB, label *types.ChunkLabel) error
	Get(ctx context.Context, tx *gorm.DB, chunkID uuid.UUID) (*types.ChunkLabel, error)
	// BatchUpsert isolates each item in its own transaction; one bad item
	// never corrupts its neighbours.
	BatchUpsert(ctx context.Context, labels []*types.ChunkLabel) []BatchOutcome
	ListUnverified(ctx context.Context, tx *gorm.DB, documentID uuid.UUID, limit, offset int) ([]*types.ChunkLabel, int64, error)
	Verify(ctx context.Context, tx *gorm.DB, chunkID, userID uuid.UUID, upd VerifyUpdate) (*types.ChunkLabel, error)
	Delete(ctx context.Context, tx *gorm.DB, chunkID uuid.UUID) error
	DeleteForDocument(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) error
}

type chunkLabelRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChunkLabelRepo(db *gorm.DB, baseLog *logger.Logger) ChunkLabelRepo {
	return &chunkLabelRepo{db: db, log: baseLog.With("repo", "ChunkLabelRepo")}
}

func (r *chunkLabelRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func validateLabel(label *types.ChunkLabel) error {
	if label.ChunkID == uuid.Nil {
		return fmt.Errorf("%w: label missing chunk_id", errs.ErrInvalidArgument)
	}
	if !label.RhetoricalRole.Valid() {
		return fmt.Errorf("%w: rhetorical role %q", errs.ErrInvalidArgument, label.RhetoricalRole)
	}
	if !label.Confidence.Valid() {
		return fmt.Errorf("%w: confidence %q", errs.ErrInvalidArgument, label.Confidence)
	}
	if label.CoverageScore < 0 || label.CoverageScore > 100 {
		return fmt.Errorf("%w: coverage score %d outside [0,100]", errs.ErrInvalidArgument, label.CoverageScore)
	}
	// Tag invariants hold at write time regardless of who built the label.
	return label.SetTags(label.Tags())
}

func (r *chunkLabelRepo) Upsert(ctx context.Context, tx *gorm.DB, label *types.ChunkLabel) error {
	if err := validateLabel(label); err != nil {
		return err
	}

	conn := r.conn(tx)

	var n int64
	if err := conn.WithContext(ctx).
		Model(&types.Chunk{}).
		Where("id = ?", label.ChunkID).
		Count(&n).Error; err != nil {
		return errs.Wrap(errs.KindTransient, err)
	}
	if n == 0 {
		return errs.Wrapf(errs.KindConflict, "chunk %s does not exist", label.ChunkID)
	}

	if label.ID == uuid.Nil {
		label.ID = uuid.New()
	}
	err := conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "chunk_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"rhetorical_role", "topic_tags", "coverage_score", "confidence",
				"is_auto_labeled", "human_verified", "updated_at",
			}),
		}).
		Create(label).Error
	if err != nil {
		return errs.Wrap(errs.KindTransient, err)
	}
	return nil
}

func (r *chunkLabelRepo) Get(ctx context.Context, tx *gorm.DB, chunkID uuid.UUID) (*types.ChunkLabel, error) {
	var label types.ChunkLabel
	err := r.conn(tx).WithContext(ctx).
		Where("chunk_id = ?", chunkID).
		First(&label).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &label, nil
}

func (r *chunkLabelRepo) BatchUpsert(ctx context.Context, labels []*types.ChunkLabel) []BatchOutcome {
	out := make([]BatchOutcome, 0, len(labels))
	for _, label := range labels {
		l := label
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return r.Upsert(ctx, tx, l)
		})
		out = append(out, BatchOutcome{ChunkID: l.ChunkID, Err: err})
	}
	return out
}

func (r *chunkLabelRepo) ListUnverified(ctx context.Context, tx *gorm.DB, documentID uuid.UUID, limit, offset int) ([]*types.ChunkLabel, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	conn := r.conn(tx).WithContext(ctx).
		Model(&types.ChunkLabel{}).
		Where("document_id = ? AND human_verified = ?", documentID, false)

	var total int64
	if err := conn.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var labels []*types.ChunkLabel
	if err := conn.
		Order("created_at ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&labels).Error; err != nil {
		return nil, 0, err
	}
	return labels, total, nil
}

func (r *chunkLabelRepo) Verify(ctx context.Context, tx *gorm.DB, chunkID, userID uuid.UUID, upd VerifyUpdate) (*types.ChunkLabel, error) {
	conn := r.conn(tx)

	var label types.ChunkLabel
	err := conn.WithContext(ctx).
		Where("chunk_id = ? AND user_id = ?", chunkID, userID).
		First(&label).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	corrected := false
	if upd.Role != nil {
		if !upd.Role.Valid() {
			return nil, fmt.Errorf("%w: rhetorical role %q", errs.ErrInvalidArgument, *upd.Role)
		}
		label.RhetoricalRole = *upd.Role
		corrected = true
	}
	if upd.TopicTags != nil {
		if err := label.SetTags(upd.TopicTags); err != nil {
			return nil, err
		}
		corrected = true
	}

	label.HumanVerified = true
	if corrected {
		label.IsAutoLabeled = false
	}

	if err := conn.WithContext(ctx).Save(&label).Error; err != nil {
		return nil, errs.Wrap(errs.KindTransient, err)
	}
	return &label, nil
}

func (r *chunkLabelRepo) Delete(ctx context.Context, tx *gorm.DB, chunkID uuid.UUID) error {
	return r.conn(tx).WithContext(ctx).
		Where("chunk_id = ?", chunkID).
		Delete(&types.ChunkLabel{}).Error
}

func (r *chunkLabelRepo) DeleteForDocument(ctx context.Context, tx *gorm.DB, documentID uuid.UUID) error {
	return r.conn(tx).WithContext(ctx).
		Where("document_id = ?", documentID).
		Delete(&types.ChunkLabel{}).Error
}
