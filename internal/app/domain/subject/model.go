package subject

// Subject is a course subject taught within the grading system. An ID of zero
// means the record has not been persisted yet.
type Subject struct {
	ID   int64   `db:"id" json:"id"`
	Name *string `db:"name" json:"name"`
	Code *string `db:"code" json:"code"`
}

// IsNew reports whether the subject still needs an identity from storage.
func (s Subject) IsNew() bool {
	return s.ID == 0
}
