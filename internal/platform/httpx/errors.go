package httpx

import "net/http"

// Convenience wrappers over Problem for the statuses the ledger surfaces.

// BadRequest renders a 400 problem response for malformed input.
func BadRequest(w http.ResponseWriter, detail string) {
	Problem(w, http.StatusBadRequest, "Validation Failed", detail)
}

// NotFound renders a 404 problem response.
func NotFound(w http.ResponseWriter, detail string) {
	Problem(w, http.StatusNotFound, "Not Found", detail)
}

// Conflict renders a 409 problem response for concurrent-write conflicts;
// callers are expected to retry the request.
func Conflict(w http.ResponseWriter, detail string) {
	Problem(w, http.StatusConflict, "Conflict", detail)
}

// UnprocessableEntity renders a 422 problem response for operations not
// permitted in the resource's current state.
func UnprocessableEntity(w http.ResponseWriter, detail string) {
	Problem(w, http.StatusUnprocessableEntity, "Invalid State", detail)
}

// Internal renders a 500 problem response without leaking details.
func Internal(w http.ResponseWriter) {
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
