package persistence

import (
	"fmt"
	"reflect"

	"github.com/petstore/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// registerVersionTracking records the version every loaded aggregate was read at,
// so saveVersioned can refuse to overwrite a row someone else changed since.
func registerVersionTracking(db *gorm.DB) error {
	if err := db.Callback().Query().After("gorm:query").Register("petstore:mark_persisted", markPersisted); err != nil {
		return fmt.Errorf("failed to register version tracking: %w", err)
	}
	return nil
}

func markPersisted(tx *gorm.DB) {
	if tx.Error != nil || tx.Statement == nil {
		return
	}
	rv := tx.Statement.ReflectValue
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			markValue(rv.Index(i))
		}
	default:
		markValue(rv)
	}
}

func markValue(rv reflect.Value) {
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct || !rv.CanAddr() {
		return
	}
	if v, ok := rv.Addr().Interface().(shared.Versioned); ok {
		v.MarkPersisted()
	}
}

// saveVersioned writes row's own columns. A row that was loaded from the store is
// only updated while its stored version still equals the one it was read at;
// otherwise shared.ErrConcurrencyConflict is returned and nothing is written.
// Rows never loaded (new aggregates) are upserted.
func saveVersioned(tx *gorm.DB, row any) error {
	v, ok := row.(shared.Versioned)
	if !ok || v.PersistedVersion() == 0 {
		return tx.Omit(clause.Associations).Save(row).Error
	}

	result := tx.Model(row).
		Where("version = ?", v.PersistedVersion()).
		Select("*").
		Omit(clause.Associations).
		Updates(row)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// markSaved moves the read version forward once the write is committed
func markSaved(rows ...any) {
	for _, row := range rows {
		if v, ok := row.(shared.Versioned); ok {
			v.MarkPersisted()
		}
	}
}
