package models

import "time"

// VocabularyTestRecord tracks a person's latest vocabulary test result.
type VocabularyTestRecord struct {
	ID        int64      `db:"id" json:"id"`
	PersonID  int64      `db:"person_id" json:"person_id"`
	TestDate  *time.Time `db:"test_date" json:"test_date,omitempty"`
	Score     *int       `db:"score" json:"score,omitempty"`
	FullScore *int       `db:"full_score" json:"full_score,omitempty"`
}
