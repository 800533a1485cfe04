package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine-go/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/clock"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/validator"
	"github.com/go-chi/chi/v5"
)

// principal returns the caller; routes using it sit behind AuthRequired.
func principal(r *http.Request) user.Principal {
	p, _ := middleware.PrincipalFromContext(r.Context())
	return p
}

// canAccessEmployee lets callers read their own data or, with the view-all
// permission, anyone's in their company.
func canAccessEmployee(p user.Principal, employeeID string, viewAll user.Permission) bool {
	if p.EmployeeID != "" && p.EmployeeID == employeeID {
		return true
	}
	return user.HasPermission(p.Role, viewAll)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

// queryInt parses an integer query parameter; missing values yield def.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validator.ValidationErrors{{Field: name, Message: name + " must be a number"}}
	}
	return v, nil
}

// pathID reads a UUID path parameter. A malformed id cannot name a stored row,
// so it yields notFound.
func pathID(r *http.Request, name string, notFound error) (string, error) {
	id := chi.URLParam(r, name)
	if !validator.IsValidUUID(id) {
		return "", notFound
	}
	return id, nil
}

// queryID reads an optional UUID query parameter.
func queryID(r *http.Request, name string) (string, error) {
	id := r.URL.Query().Get(name)
	if err := validateIDs(idField{name, id}); err != nil {
		return "", err
	}
	return id, nil
}

type idField struct {
	name  string
	value string
}

// validateIDs rejects ids that are present but not UUIDs. Blank values are
// left to the request's own required checks.
func validateIDs(fields ...idField) error {
	var errs validator.ValidationErrors
	for _, f := range fields {
		if f.value != "" && !validator.IsValidUUID(f.value) {
			errs = append(errs, validator.ValidationError{Field: f.name, Message: f.name + " must be a valid UUID"})
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func parseDateParam(name, raw string) (time.Time, error) {
	d, err := clock.ParseDate(raw)
	if err != nil {
		return time.Time{}, validator.ValidationErrors{{Field: name, Message: name + " must be in YYYY-MM-DD format"}}
	}
	return d, nil
}
