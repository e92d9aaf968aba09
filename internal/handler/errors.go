package handler

import (
	"errors"
	"net/http"

	"github.com/brightstarts/studyvibe-backend/internal/repository"
	"github.com/brightstarts/studyvibe-backend/internal/response"
	"github.com/brightstarts/studyvibe-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
)

// errorMapping pairs a domain error with its HTTP status and API code.
type errorMapping struct {
	err    error
	status int
	code   response.ErrCode
	field  string
}

var errorMappings = []errorMapping{
	{repository.ErrNotFound, http.StatusNotFound, response.ErrNotFound, ""},
	{repository.ErrUsernameTaken, http.StatusConflict, response.ErrUsernameTaken, ""},
	{repository.ErrEmailTaken, http.StatusConflict, response.ErrEmailTaken, ""},
	{repository.ErrGroupFull, http.StatusConflict, response.ErrGroupFull, ""},
	{repository.ErrAlreadyMember, http.StatusConflict, response.ErrAlreadyMember, ""},
	{repository.ErrNotMember, http.StatusForbidden, response.ErrForbidden, ""},
	{repository.ErrOwnerCannotLeave, http.StatusBadRequest, response.ErrOwnerCannotLeave, ""},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials, ""},
	{service.ErrAccountBanned, http.StatusForbidden, response.ErrAccountBanned, ""},
	{service.ErrSessionInvalid, http.StatusUnauthorized, response.ErrSessionInvalidated, ""},
	{service.ErrForbidden, http.StatusForbidden, response.ErrForbidden, ""},
	{service.ErrActionForbidden, http.StatusForbidden, response.ErrActionForbidden, ""},
	{service.ErrInvalidInviteCode, http.StatusForbidden, response.ErrInvalidInviteCode, ""},
	{service.ErrNotParticipant, http.StatusForbidden, response.ErrNotParticipant, ""},
	{service.ErrNoParticipants, http.StatusBadRequest, response.ErrValidation, "participant_ids"},
	{service.ErrNoQuestions, http.StatusBadRequest, response.ErrNoQuestions, ""},
	{service.ErrInvalidQuestion, http.StatusBadRequest, response.ErrValidation, "correct_index"},
	{service.ErrUnknownTable, http.StatusBadRequest, response.ErrUnknownTable, ""},
	{service.ErrEmptyQuery, http.StatusBadRequest, response.ErrEmptyQuery, ""},
	{service.ErrUnsupportedFileType, http.StatusBadRequest, response.ErrUnsupportedFile, ""},
	{service.ErrFileTooLarge, http.StatusBadRequest, response.ErrFileTooLarge, ""},
}

// classify maps err onto its mapping. Unknown errors become 500
// INTERNAL_ERROR.
func classify(err error) errorMapping {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m
		}
	}
	switch {
	case repository.IsUniqueViolation(err):
		return errorMapping{err: err, status: http.StatusConflict, code: response.ErrConflict}
	case repository.IsForeignKeyViolation(err):
		return errorMapping{err: err, status: http.StatusConflict, code: response.ErrDependencyExists}
	}
	return errorMapping{err: err, status: http.StatusInternalServerError, code: response.ErrInternal}
}

// fail writes the error response for err. Internal errors are attached to
// the context so the access log records them.
func fail(c *gin.Context, err error) {
	m := classify(err)
	if m.status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	if m.field != "" {
		response.FailWithFields(c, m.status, m.code, map[string]string{m.field: m.err.Error()})
		return
	}
	response.Fail(c, m.status, m.code)
}

// failSQL reports an admin console error, exposing Postgres diagnostics.
func failSQL(c *gin.Context, err error) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		fields := map[string]string{
			"detail":   pgErr.Message,
			"sqlstate": pgErr.Code,
		}
		if pgErr.Detail != "" {
			fields["pg_detail"] = pgErr.Detail
		}
		if pgErr.Hint != "" {
			fields["hint"] = pgErr.Hint
		}
		response.FailWithFields(c, http.StatusBadRequest, response.ErrSQL, fields)
		return
	}
	fail(c, err)
}
