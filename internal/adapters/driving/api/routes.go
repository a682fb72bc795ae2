package api

import "net/http"

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /collections", s.handleListCollections)
	mux.HandleFunc("POST /collections", s.handleCreateCollection)
	mux.HandleFunc("PUT /collections/{name}", s.handleRenameCollection)
	mux.HandleFunc("DELETE /collections/{name}", s.handleDeleteCollection)

	mux.HandleFunc("POST /collections/{name}/upload_files", s.handleUploadFiles)
	mux.HandleFunc("POST /collections/{name}/update_files", s.handleUpdateFiles)
	mux.HandleFunc("GET /collections/{name}/pending", s.handlePending)

	mux.HandleFunc("GET /collections/{name}/list_documents", s.handleListDocuments)
	mux.HandleFunc("GET /collections/{name}/files", s.handleListFiles)
	mux.HandleFunc("DELETE /collections/{name}/delete_documents", s.handleDeleteDocuments)

	mux.HandleFunc("POST /collections/{name}/query", s.handleQuery)

	return mux
}
