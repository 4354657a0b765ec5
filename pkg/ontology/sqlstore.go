package ontology

import (
	"database/sql"
	"fmt"
	"time"
)

// SQLSynonymStore persists runtime synonyms in the ontology_synonyms table.
type SQLSynonymStore struct {
	db *sql.DB
}

// NewSQLSynonymStore wraps a store pool.
func NewSQLSynonymStore(db *sql.DB) *SQLSynonymStore {
	return &SQLSynonymStore{db: db}
}

// SaveSynonym inserts a synonym row; duplicates are ignored.
func (s *SQLSynonymStore) SaveSynonym(phrase, sensorType, locale string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO ontology_synonyms (phrase, sensor_type, locale, created_at) VALUES (?, ?, ?, ?)`,
		phrase, sensorType, locale, time.Now().UTC().Format("2006-01-02 15:04:05.000000"))
	if err != nil {
		return fmt.Errorf("saving synonym: %w", err)
	}
	return nil
}

// LoadSynonyms returns all persisted synonyms grouped by canonical type.
func (s *SQLSynonymStore) LoadSynonyms() (map[string][]SavedSynonym, error) {
	rows, err := s.db.Query(`SELECT phrase, sensor_type, locale FROM ontology_synonyms ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("loading synonyms: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]SavedSynonym)
	for rows.Next() {
		var phrase, sensorType, locale string
		if err := rows.Scan(&phrase, &sensorType, &locale); err != nil {
			return nil, err
		}
		out[sensorType] = append(out[sensorType], SavedSynonym{Phrase: phrase, Locale: locale})
	}
	return out, rows.Err()
}
