package subjects

import (
	"fmt"
	"strconv"
)

// SubjectDTO is the transport representation of a subject. Nil fields are
// absent from the request; in a partial update they leave the stored value
// unchanged.
type SubjectDTO struct {
	ID   *int64  `json:"id"`
	Name *string `json:"name"`
	Code *string `json:"code"`
}

// Equal compares by identity only. Two DTOs without an id are never equal.
func (d SubjectDTO) Equal(other SubjectDTO) bool {
	if d.ID == nil || other.ID == nil {
		return false
	}
	return *d.ID == *other.ID
}

func (d SubjectDTO) String() string {
	return fmt.Sprintf("SubjectDTO{id=%s, name='%s', code='%s'}", formatID(d.ID), formatString(d.Name), formatString(d.Code))
}

func formatID(id *int64) string {
	if id == nil {
		return "null"
	}
	return strconv.FormatInt(*id, 10)
}

func formatString(v *string) string {
	if v == nil {
		return "null"
	}
	return *v
}
