package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"predio-server/src/bank"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeBankError translates the engine's tagged error into an HTTP status
// and a JSON body carrying the stable code, so the UI can tell "reconnect
// required" from "try again later".
func writeBankError(w http.ResponseWriter, err error) {
	e := bank.AsError(err)

	status := http.StatusInternalServerError
	switch e.Code {
	case bank.CodeValidation:
		status = http.StatusBadRequest
	case bank.CodeNotFound:
		status = http.StatusNotFound
	case bank.CodeAlreadyConnected, bank.CodeNotActive, bank.CodeMissingToken, bank.CodeExpired:
		status = http.StatusConflict
	case bank.CodeRateLimited:
		status = http.StatusTooManyRequests
	case bank.CodeProviderError:
		status = http.StatusBadGateway
	}

	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    string(e.Code),
			"message": e.Message,
		},
	})
}

func buildingIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "building_id"), 10, 64)
}
