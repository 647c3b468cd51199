package httpapi

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/R3E-Network/grading_system/internal/app/services/subjects"
	apperrors "github.com/R3E-Network/grading_system/internal/errors"
)

const entityName = "subject"

func (h *handler) createSubject(w http.ResponseWriter, r *http.Request) {
	var dto subjects.SubjectDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		h.writeError(w, r, apperrors.BadRequest("invalid request body", err))
		return
	}
	h.log.WithContext(r.Context()).Debugf("REST request to save Subject : %s", dto)

	if dto.ID != nil {
		h.writeError(w, r, apperrors.BadRequestAlert("A new subject cannot already have an ID", entityName, apperrors.KeyIDExists))
		return
	}

	saved, err := h.app.Subjects.Save(r.Context(), dto)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	id := strconv.FormatInt(*saved.ID, 10)
	w.Header().Set("Location", "/api/subjects/"+id)
	h.alerts.created(w, entityName, id)
	writeJSON(w, http.StatusCreated, saved)
}

func (h *handler) updateSubject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var dto subjects.SubjectDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		h.writeError(w, r, apperrors.BadRequest("invalid request body", err))
		return
	}
	h.log.WithContext(r.Context()).Debugf("REST request to update Subject : %d, %s", id, dto)

	if !h.checkIdentity(w, r, id, dto) {
		return
	}

	result, err := h.app.Subjects.Update(r.Context(), dto)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.alerts.updated(w, entityName, strconv.FormatInt(*dto.ID, 10))
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) partialUpdateSubject(w http.ResponseWriter, r *http.Request) {
	if !acceptsMergePatch(r) {
		h.writeError(w, r, apperrors.UnsupportedMediaType(r.Header.Get("Content-Type")))
		return
	}
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var dto subjects.SubjectDTO
	if err := decodeJSON(r.Body, &dto); err != nil {
		h.writeError(w, r, apperrors.BadRequest("invalid request body", err))
		return
	}
	h.log.WithContext(r.Context()).Debugf("REST request to partial update Subject partially : %d, %s", id, dto)

	if !h.checkIdentity(w, r, id, dto) {
		return
	}

	result, found, err := h.app.Subjects.PartialUpdate(r.Context(), dto)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !found {
		h.writeError(w, r, apperrors.NotFound(entityName))
		return
	}

	h.alerts.updated(w, entityName, strconv.FormatInt(*dto.ID, 10))
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) getAllSubjects(w http.ResponseWriter, r *http.Request) {
	h.log.WithContext(r.Context()).Debug("REST request to get all Subjects")
	list, err := h.app.Subjects.FindAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *handler) getSubject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	h.log.WithContext(r.Context()).Debugf("REST request to get Subject : %d", id)

	dto, found, err := h.app.Subjects.FindOne(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !found {
		h.writeError(w, r, apperrors.NotFound(entityName))
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *handler) deleteSubject(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	h.log.WithContext(r.Context()).Debugf("REST request to delete Subject : %d", id)

	if err := h.app.Subjects.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.alerts.deleted(w, entityName, strconv.FormatInt(id, 10))
	w.WriteHeader(http.StatusNoContent)
}

// checkIdentity enforces that dto carries the path id of an existing subject.
// It writes the error response and returns false when it does not.
func (h *handler) checkIdentity(w http.ResponseWriter, r *http.Request, id int64, dto subjects.SubjectDTO) bool {
	if dto.ID == nil {
		h.writeError(w, r, apperrors.BadRequestAlert("Invalid id", entityName, apperrors.KeyIDNull))
		return false
	}
	if *dto.ID != id {
		h.writeError(w, r, apperrors.BadRequestAlert("Invalid ID", entityName, apperrors.KeyIDInvalid))
		return false
	}
	exists, err := h.app.SubjectStore.SubjectExists(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return false
	}
	if !exists {
		h.writeError(w, r, apperrors.BadRequestAlert("Entity not found", entityName, apperrors.KeyIDNotFound))
		return false
	}
	return true
}

func (h *handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.writeError(w, r, apperrors.BadRequestAlert("Invalid ID", entityName, apperrors.KeyIDInvalid))
		return 0, false
	}
	return id, true
}

func acceptsMergePatch(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/json" || mediaType == "application/merge-patch+json"
}
