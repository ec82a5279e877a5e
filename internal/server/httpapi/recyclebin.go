package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/mediavault/mediavault/internal/server/models"
)

// BinOps is the slice of the recycle bin service the handlers need.
type BinOps interface {
	List(ctx context.Context, userID string) ([]*models.File, error)
	Restore(ctx context.Context, userID, fileID string) error
	Delete(ctx context.Context, userID, fileID string) error
	Empty(ctx context.Context, userID string) (int, error)
}

// ListRecycleBin returns the caller's soft-deleted files.
func ListRecycleBin(bin BinOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			_ = WriteJSON(w, http.StatusUnauthorized, GeneralError(errors.New("not authenticated")))
			return
		}

		list, err := bin.List(r.Context(), claims.Subject)
		if err != nil {
			WriteError(w, err)
			return
		}

		_ = WriteJSON(w, http.StatusOK, RequestOK("Recycle bin fetched", toFileResponses(list)))
	}
}

// RestoreFromBin restores a file; rejects files that are not soft-deleted.
func RestoreFromBin(bin BinOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			_ = WriteJSON(w, http.StatusUnauthorized, GeneralError(errors.New("not authenticated")))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			WriteError(w, err)
			return
		}

		if err := bin.Restore(r.Context(), claims.Subject, id); err != nil {
			WriteError(w, err)
			return
		}

		_ = WriteJSON(w, http.StatusOK, RequestOK("File restored", nil))
	}
}

// PurgeFile permanently deletes a soft-deleted file, blob first.
func PurgeFile(bin BinOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			_ = WriteJSON(w, http.StatusUnauthorized, GeneralError(errors.New("not authenticated")))
			return
		}

		id, err := pathUUID(r, "id")
		if err != nil {
			WriteError(w, err)
			return
		}

		if err := bin.Delete(r.Context(), claims.Subject, id); err != nil {
			WriteError(w, err)
			return
		}

		_ = WriteJSON(w, http.StatusOK, RequestOK("File permanently deleted", nil))
	}
}

// EmptyRecycleBin purges everything in the bin and reports how many files
// were removed.
func EmptyRecycleBin(bin BinOps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			_ = WriteJSON(w, http.StatusUnauthorized, GeneralError(errors.New("not authenticated")))
			return
		}

		removed, err := bin.Empty(r.Context(), claims.Subject)
		if err != nil {
			WriteError(w, err)
			return
		}

		_ = WriteJSON(w, http.StatusOK, RequestOK("Recycle bin emptied", map[string]int{"removed": removed}))
	}
}
