package docstore

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Document is one persisted record. The payload is the JSON-serialized
// record; the auto-increment key doubles as the record id, so ids are never
// reused even across restarts.
type Document struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	Collection string `gorm:"type:varchar(64);index;not null"`
	Data       string `gorm:"type:json;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Document) TableName() string {
	return "documents"
}

// GormStore persists one collection in the shared documents table. Field
// matching happens in Go over the decoded payloads; the collection sizes
// here do not justify indexing.
type GormStore struct {
	db         *gorm.DB
	collection string
	schema     []string
}

func NewGormStore(db *gorm.DB, collection string, schema []string) *GormStore {
	return &GormStore{
		db:         db,
		collection: collection,
		schema:     schema,
	}
}

func (s *GormStore) Create(ctx context.Context, fields Record) (Record, error) {
	rec := normalizeRecord(withSchema(s.schema, fields))

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	row := Document{Collection: s.collection, Data: string(data)}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}

	rec[IDField] = int64(row.ID)
	data, err = json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	row.Data = string(data)
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return nil, err
	}

	return rec, nil
}

func (s *GormStore) Get(ctx context.Context, field string, value interface{}) ([]Record, error) {
	rows, err := s.rows(ctx)
	if err != nil {
		return nil, err
	}

	matches := []Record{}
	for _, row := range rows {
		rec, err := decodeDocument(row)
		if err != nil {
			return nil, err
		}
		if equalValues(rec[field], value) {
			matches = append(matches, rec)
		}
	}
	return matches, nil
}

func (s *GormStore) GetAll(ctx context.Context) ([]Record, error) {
	rows, err := s.rows(ctx)
	if err != nil {
		return nil, err
	}

	all := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := decodeDocument(row)
		if err != nil {
			return nil, err
		}
		all = append(all, rec)
	}
	return all, nil
}

func (s *GormStore) Update(ctx context.Context, fields Record, field string, value interface{}) ([]Record, error) {
	if _, ok := fields[IDField]; ok {
		return nil, ErrImmutableID
	}
	patch := normalizeRecord(fields)

	rows, err := s.rows(ctx)
	if err != nil {
		return nil, err
	}

	matches := []Record{}
	for i := range rows {
		rec, err := decodeDocument(rows[i])
		if err != nil {
			return nil, err
		}
		if !equalValues(rec[field], value) {
			continue
		}

		for name, v := range patch {
			rec[name] = v
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, err
		}
		rows[i].Data = string(data)
		if err := s.db.WithContext(ctx).Save(&rows[i]).Error; err != nil {
			return nil, err
		}
		matches = append(matches, rec)
	}
	return matches, nil
}

func (s *GormStore) Delete(ctx context.Context, field string, value interface{}) error {
	rows, err := s.rows(ctx)
	if err != nil {
		return err
	}

	for i := range rows {
		rec, err := decodeDocument(rows[i])
		if err != nil {
			return err
		}
		if !equalValues(rec[field], value) {
			continue
		}
		if err := s.db.WithContext(ctx).Delete(&rows[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *GormStore) rows(ctx context.Context) ([]Document, error) {
	var rows []Document
	err := s.db.WithContext(ctx).
		Where("collection = ?", s.collection).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func decodeDocument(row Document) (Record, error) {
	rec := Record{}
	if err := json.Unmarshal([]byte(row.Data), &rec); err != nil {
		return nil, err
	}
	// The row key is authoritative for the id.
	rec[IDField] = int64(row.ID)
	return rec, nil
}
