package photo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"net/http"
)

// ErrTooManyImages is returned when an upload carries more files than allowed
var ErrTooManyImages = errors.New("too many images")

// maxFileSize bounds a single uploaded image (high-resolution phone photos)
const maxFileSize = int64(50 << 20)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes a {"error": message} response with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// readUpload transfers one multipart file part into memory. A part that
// cannot be read becomes a source that fails to load.
func readUpload(header *multipart.FileHeader) BytesSource {
	src := BytesSource{Filename: header.Filename}
	if header.Size > maxFileSize {
		src.Err = fmt.Errorf("file is %d bytes, limit is %d", header.Size, maxFileSize)
		return src
	}

	f, err := header.Open()
	if err != nil {
		src.Err = fmt.Errorf("opening upload: %w", err)
		return src
	}
	defer f.Close()

	src.Data, src.Err = io.ReadAll(f)
	if src.Err != nil {
		src.Err = fmt.Errorf("reading upload: %w", src.Err)
	}
	return src
}

// handleCreateBatch runs the uploaded files through the pipeline and
// returns the document exactly as it was written
func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFileSize*int64(s.maxImages))
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			errorMsg = fmt.Sprintf("Upload is too large. Maximum size is %d bytes.", maxErr.Limit)
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		jsonError(w, "No files were selected. Please choose images to upload.", http.StatusBadRequest)
		return
	}
	if len(headers) > s.maxImages {
		err := fmt.Errorf("%w: %d uploaded, at most %d allowed", ErrTooManyImages, len(headers), s.maxImages)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sources := make([]Source, 0, len(headers))
	for _, h := range headers {
		sources = append(sources, readUpload(h))
	}

	batch, err := s.service.ProcessBatch(r.Context(), sources)
	if err != nil {
		slog.Error("Error processing batch", "files", len(headers), "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Batch-ID", batch.ID)
	w.WriteHeader(http.StatusOK)
	w.Write(batch.Document)
}

// handleListBatches returns a list of all batches
func (s *Server) handleListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := s.service.ListBatches()
	if err != nil {
		slog.Error("Error listing batches", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(batches); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGetBatch returns the stored document of one batch
func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Batch ID required", http.StatusBadRequest)
		return
	}
	batch, err := s.service.GetBatch(id)
	if err != nil {
		if errors.Is(err, ErrBatchNotFound) {
			corsError(w, "Batch not found", http.StatusNotFound)
			return
		}
		slog.Error("Error getting batch", "id", id, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Batch-ID", batch.ID)
	w.Write(batch.Document)
}

// handleGetDocument returns the document currently at the output location
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.LatestDocument()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			corsError(w, "No document has been written yet", http.StatusNotFound)
			return
		}
		slog.Error("Error reading document", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.Write(doc)
}
