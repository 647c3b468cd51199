package subjects

import "github.com/R3E-Network/grading_system/internal/app/domain/subject"

// ToEntity copies a DTO into a storage record. A nil id becomes the zero id,
// which storage treats as a new record.
func ToEntity(dto SubjectDTO) subject.Subject {
	subj := subject.Subject{
		Name: copyString(dto.Name),
		Code: copyString(dto.Code),
	}
	if dto.ID != nil {
		subj.ID = *dto.ID
	}
	return subj
}

// ToDTO copies a storage record into its transport form.
func ToDTO(subj subject.Subject) SubjectDTO {
	dto := SubjectDTO{
		Name: copyString(subj.Name),
		Code: copyString(subj.Code),
	}
	if !subj.IsNew() {
		id := subj.ID
		dto.ID = &id
	}
	return dto
}

// ToDTOs maps a slice of records, preserving order. It never returns nil.
func ToDTOs(subjects []subject.Subject) []SubjectDTO {
	out := make([]SubjectDTO, 0, len(subjects))
	for _, subj := range subjects {
		out = append(out, ToDTO(subj))
	}
	return out
}

// PartialUpdate overwrites the fields of existing that are set on dto.
// The id is never touched.
func PartialUpdate(existing *subject.Subject, dto SubjectDTO) {
	if dto.Name != nil {
		existing.Name = copyString(dto.Name)
	}
	if dto.Code != nil {
		existing.Code = copyString(dto.Code)
	}
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
