package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-coffee-orders/internal/shop"
	"github.com/go-chi/chi/v5"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, shop.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, shop.ErrInvalidQuantity),
		errors.Is(err, shop.ErrInvalidCustomization),
		errors.Is(err, shop.ErrInvalidPaymentMethod),
		errors.Is(err, shop.ErrMissingPaymentDetails),
		errors.Is(err, shop.ErrInvalidCustomer),
		errors.Is(err, shop.ErrInvalidMenuItem),
		errors.Is(err, shop.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, shop.ErrAlreadyRegistered),
		errors.Is(err, shop.ErrInsufficientPoints):
		return http.StatusConflict
	case errors.Is(err, shop.ErrEmptyCart),
		errors.Is(err, shop.ErrNotSignedIn):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. Internal errors are not echoed.
func fail(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		writeError(w, code, "internal error")
		return
	}
	writeError(w, code, err.Error())
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return n, true
}
