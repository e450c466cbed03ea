package gormrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"villagemap/internal/adapter/repo/gorm/model"
	"villagemap/internal/app/ports"
	"villagemap/internal/domain/town"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TownDocumentRepo stores each village as one jsonb row. updated_at plays the
// role a file's modification time plays for the file store.
type TownDocumentRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTownDocumentRepo(db *gorm.DB) TownDocumentRepo {
	return TownDocumentRepo{db: db, now: time.Now}
}

func (r TownDocumentRepo) Load(ctx context.Context, village string) (*town.Document, error) {
	var row model.TownDocument
	err := getDBFromCtx(ctx, r.db).WithContext(ctx).
		Where("village = ?", village).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("town %s: %w", village, ports.ErrNotFound)
		}
		return nil, err
	}
	doc := &town.Document{}
	if err := sonic.ConfigStd.Unmarshal(row.Document, doc); err != nil {
		return nil, fmt.Errorf("town %s: %w: %v", village, ports.ErrParse, err)
	}
	return doc, nil
}

// ModTime locks the row when called inside a transaction so the following
// load and save see no interleaved writer.
func (r TownDocumentRepo) ModTime(ctx context.Context, village string) (time.Time, error) {
	q := getDBFromCtx(ctx, r.db).WithContext(ctx).Model(&model.TownDocument{})
	if _, ok := txFromCtx(ctx); ok {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row model.TownDocument
	err := q.Select("updated_at").Where("village = ?", village).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, fmt.Errorf("town %s: %w", village, ports.ErrNotFound)
		}
		return time.Time{}, err
	}
	return row.UpdatedAt, nil
}

func (r TownDocumentRepo) Save(ctx context.Context, village string, doc *town.Document) (time.Time, error) {
	b, err := sonic.ConfigStd.Marshal(doc)
	if err != nil {
		return time.Time{}, fmt.Errorf("encode town %s: %w", village, err)
	}
	// Postgres keeps microseconds; truncating keeps the returned time equal
	// to what ModTime reads back.
	row := model.TownDocument{
		Village:   village,
		Document:  b,
		UpdatedAt: r.now().UTC().Truncate(time.Microsecond),
	}
	err = getDBFromCtx(ctx, r.db).WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "village"}},
		DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return time.Time{}, err
	}
	return row.UpdatedAt, nil
}

func (r TownDocumentRepo) List(ctx context.Context) ([]string, error) {
	out := []string{}
	err := getDBFromCtx(ctx, r.db).WithContext(ctx).
		Model(&model.TownDocument{}).
		Order("village ASC").
		Pluck("village", &out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

var _ ports.TownStore = TownDocumentRepo{}
