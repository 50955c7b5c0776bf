package handler

import (
	"encoding/json"
	"net/http"

	"expense_tracker/internal/common"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

var errInvalidBody = common.NewError(common.ErrBadRequest, "Invalid request body")

// decodeJSON reads one JSON value from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errInvalidBody
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errInvalidBody
	}
	return nil
}
