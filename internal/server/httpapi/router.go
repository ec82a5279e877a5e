package httpapi

import (
	"net/http"
)

// Services groups everything the router wires handlers to.
type Services struct {
	Files    FileOps
	Albums   AlbumOps
	Bin      BinOps
	Users    UserOps
	Verifier TokenVerifier

	MaxUploadBytes int64
}

// NewRouter builds the full API surface. Everything under /api requires a
// verified identity token; /health does not.
func NewRouter(s *Services) http.Handler {
	api := http.NewServeMux()

	api.HandleFunc("POST /api/files/upload", UploadFile(s.Files, s.MaxUploadBytes))
	api.HandleFunc("GET /api/files", ListFiles(s.Files))
	api.HandleFunc("GET /api/files/stats", StorageStats(s.Files))
	api.HandleFunc("GET /api/files/{id}", GetFile(s.Files))
	api.HandleFunc("GET /api/files/{id}/preview", PreviewFile(s.Files))
	api.HandleFunc("GET /api/files/{id}/download", DownloadFile(s.Files))
	api.HandleFunc("PATCH /api/files/{id}/rename", RenameFile(s.Files))
	api.HandleFunc("DELETE /api/files/{id}", DeleteFile(s.Files))
	api.HandleFunc("POST /api/files/{id}/restore", RestoreFile(s.Files))

	api.HandleFunc("GET /api/recycle-bin", ListRecycleBin(s.Bin))
	api.HandleFunc("POST /api/recycle-bin/{id}/restore", RestoreFromBin(s.Bin))
	api.HandleFunc("DELETE /api/recycle-bin/{id}", PurgeFile(s.Bin))
	api.HandleFunc("DELETE /api/recycle-bin", EmptyRecycleBin(s.Bin))

	api.HandleFunc("POST /api/albums", CreateAlbum(s.Albums))
	api.HandleFunc("GET /api/albums", ListAlbums(s.Albums))
	api.HandleFunc("GET /api/albums/{id}", GetAlbum(s.Albums))
	api.HandleFunc("GET /api/albums/{id}/files", ListAlbumFiles(s.Albums))
	api.HandleFunc("PATCH /api/albums/{id}", RenameAlbum(s.Albums))
	api.HandleFunc("DELETE /api/albums/{id}", DeleteAlbum(s.Albums))
	api.HandleFunc("POST /api/albums/{id}/files/{fileID}", AddAlbumFile(s.Albums))
	api.HandleFunc("DELETE /api/albums/{id}/files/{fileID}", RemoveAlbumFile(s.Albums))

	api.HandleFunc("POST /api/profile", CreateProfile(s.Users))
	api.HandleFunc("GET /api/profile/me", Me(s.Users))
	api.HandleFunc("GET /api/profile/username-available", UsernameAvailable(s.Users))

	root := http.NewServeMux()
	root.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	root.Handle("/api/", AuthMiddleware(s.Verifier)(api))

	return root
}
