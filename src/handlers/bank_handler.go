package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"predio-server/src/bank"
	"predio-server/src/db"
)

func InitiateBankConnection(svc *bank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := r.Context().Value("user_id").(int64)
		buildingID, err := buildingIDParam(r)
		if err != nil {
			http.Error(w, "invalid building id", http.StatusBadRequest)
			return
		}

		result, err := svc.InitiateBankConnection(r.Context(), buildingID, userID)
		if err != nil {
			log.Printf("ERROR: Failed to initiate bank connection for building %d: %v", buildingID, err)
			writeBankError(w, err)
			return
		}

		db.ClearAllConnectionCaches()
		writeJSON(w, http.StatusCreated, result)
	}
}

// OAuthCallback is where the aggregator redirects the user's browser after
// consent. It is unauthenticated; the signed state carries the identity.
func OAuthCallback(svc *bank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		state := r.URL.Query().Get("state")
		if code == "" || state == "" {
			http.Error(w, "missing code or state", http.StatusBadRequest)
			return
		}

		result, err := svc.HandleOAuthCallback(r.Context(), code, state)
		if err != nil {
			log.Printf("ERROR: OAuth callback failed: %v", err)
			writeBankError(w, err)
			return
		}

		db.ClearAllConnectionCaches()
		writeJSON(w, http.StatusOK, result)
	}
}

func GetConnectionStatus(svc *bank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buildingID, err := buildingIDParam(r)
		if err != nil {
			http.Error(w, "invalid building id", http.StatusBadRequest)
			return
		}

		cacheKey := fmt.Sprintf("connection:%d", buildingID)
		if cached, found := db.Cache.Get(cacheKey); found {
			writeJSON(w, http.StatusOK, cached)
			return
		}

		result, err := svc.GetConnectionStatus(r.Context(), buildingID)
		if err != nil {
			log.Printf("ERROR: Failed to get connection status for building %d: %v", buildingID, err)
			writeBankError(w, err)
			return
		}

		db.SetConnectionCache(cacheKey, result)
		writeJSON(w, http.StatusOK, result)
	}
}

func SyncAccounts(svc *bank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buildingID, err := buildingIDParam(r)
		if err != nil {
			http.Error(w, "invalid building id", http.StatusBadRequest)
			return
		}

		count, err := svc.SyncAccounts(r.Context(), buildingID)
		if err != nil {
			log.Printf("ERROR: Account sync failed for building %d: %v", buildingID, err)
			db.ClearAllConnectionCaches()
			writeBankError(w, err)
			return
		}

		db.ClearAllConnectionCaches()
		writeJSON(w, http.StatusOK, map[string]int{"accounts_synced": count})
	}
}

func SyncTransactions(svc *bank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buildingID, err := buildingIDParam(r)
		if err != nil {
			http.Error(w, "invalid building id", http.StatusBadRequest)
			return
		}

		var from, to *time.Time
		if raw := r.URL.Query().Get("from"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				http.Error(w, "invalid from date", http.StatusBadRequest)
				return
			}
			from = &parsed
		}
		if raw := r.URL.Query().Get("to"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				http.Error(w, "invalid to date", http.StatusBadRequest)
				return
			}
			to = &parsed
		}

		result, err := svc.SyncTransactions(r.Context(), buildingID, from, to)
		if err != nil {
			log.Printf("ERROR: Transaction sync failed for building %d: %v", buildingID, err)
			db.ClearAllConnectionCaches()
			db.ClearAllUnmatchedCaches()
			writeBankError(w, err)
			return
		}

		db.ClearAllConnectionCaches()
		db.ClearAllUnmatchedCaches()
		writeJSON(w, http.StatusOK, result)
	}
}

func GetUnmatchedTransactions(svc *bank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buildingID, err := buildingIDParam(r)
		if err != nil {
			http.Error(w, "invalid building id", http.StatusBadRequest)
			return
		}

		cacheKey := fmt.Sprintf("unmatched:%d", buildingID)
		if cached, found := db.Cache.Get(cacheKey); found {
			writeJSON(w, http.StatusOK, cached)
			return
		}

		txns, err := svc.GetUnmatchedTransactions(r.Context(), buildingID)
		if err != nil {
			log.Printf("ERROR: Failed to list unmatched transactions for building %d: %v", buildingID, err)
			writeBankError(w, err)
			return
		}

		db.SetUnmatchedCache(cacheKey, txns)
		writeJSON(w, http.StatusOK, txns)
	}
}

func MatchTransactionsByIban(svc *bank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buildingID, err := buildingIDParam(r)
		if err != nil {
			http.Error(w, "invalid building id", http.StatusBadRequest)
			return
		}

		matched, err := svc.MatchTransactionsByIban(r.Context(), buildingID)
		if err != nil {
			log.Printf("ERROR: IBAN sweep failed for building %d: %v", buildingID, err)
			writeBankError(w, err)
			return
		}

		db.ClearAllUnmatchedCaches()
		writeJSON(w, http.StatusOK, map[string]int{"matched": matched})
	}
}

func ManuallyMatchTransaction(svc *bank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		transactionID, err := uuid.Parse(chi.URLParam(r, "transaction_id"))
		if err != nil {
			http.Error(w, "invalid transaction id", http.StatusBadRequest)
			return
		}

		var req struct {
			PaymentID int64 `json:"payment_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("ERROR: Failed to decode manual match request body: %v", err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}

		if err := svc.ManuallyMatchTransaction(r.Context(), transactionID, req.PaymentID); err != nil {
			log.Printf("ERROR: Manual match failed for transaction %s: %v", transactionID, err)
			writeBankError(w, err)
			return
		}

		db.ClearAllUnmatchedCaches()
		w.WriteHeader(http.StatusNoContent)
	}
}

func IgnoreTransaction(svc *bank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		transactionID, err := uuid.Parse(chi.URLParam(r, "transaction_id"))
		if err != nil {
			http.Error(w, "invalid transaction id", http.StatusBadRequest)
			return
		}

		if err := svc.IgnoreTransaction(r.Context(), transactionID); err != nil {
			log.Printf("ERROR: Failed to ignore transaction %s: %v", transactionID, err)
			writeBankError(w, err)
			return
		}

		db.ClearAllUnmatchedCaches()
		w.WriteHeader(http.StatusNoContent)
	}
}

func DisconnectBank(svc *bank.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		buildingID, err := buildingIDParam(r)
		if err != nil {
			http.Error(w, "invalid building id", http.StatusBadRequest)
			return
		}

		if err := svc.DisconnectBank(r.Context(), buildingID); err != nil {
			log.Printf("ERROR: Failed to disconnect bank for building %d: %v", buildingID, err)
			writeBankError(w, err)
			return
		}

		db.ClearAllConnectionCaches()
		w.WriteHeader(http.StatusNoContent)
	}
}
