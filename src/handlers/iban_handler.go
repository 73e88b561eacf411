package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"predio-server/src/bank"
	"predio-server/src/db"
)

func AddResidentIban(svc *bank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ApartmentID int64   `json:"apartment_id"`
			IBAN        string  `json:"iban"`
			Label       *string `json:"label"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode resident iban request body: %v", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		rib, err := svc.AddResidentIban(r.Context(), req.ApartmentID, req.IBAN, req.Label)
		if err != nil {
			log.Printf("ERROR: Failed to add resident iban for apartment %d: %v", req.ApartmentID, err)
			writeBankError(w, err)
			return
		}

		db.ClearAllUnmatchedCaches()
		writeJSON(w, http.StatusCreated, rib)
	}
}

func RemoveResidentIban(svc *bank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apartmentID, err := strconv.ParseInt(chi.URLParam(r, "apartment_id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid apartment id", http.StatusBadRequest)
			return
		}
		iban := chi.URLParam(r, "iban")

		if err := svc.RemoveResidentIban(r.Context(), apartmentID, iban); err != nil {
			log.Printf("ERROR: Failed to remove resident iban for apartment %d: %v", apartmentID, err)
			writeBankError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func GetResidentIbans(svc *bank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buildingID, err := buildingIDParam(r)
		if err != nil {
			http.Error(w, "invalid building id", http.StatusBadRequest)
			return
		}

		ribs, err := svc.GetResidentIbans(r.Context(), buildingID)
		if err != nil {
			log.Printf("ERROR: Failed to list resident ibans for building %d: %v", buildingID, err)
			writeBankError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, ribs)
	}
}
