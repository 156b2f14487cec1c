package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/chris/schemascout/internal/db"
	"github.com/chris/schemascout/internal/tools"
)

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	list, err := s.files.List("")
	if err != nil {
		log.Printf("httpapi: listing files: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to read files")
		return
	}
	names := make([]string, 0, len(list.Files))
	for _, f := range list.Files {
		names = append(names, f.Name)
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": names, "count": len(names)})
}

func (s *Server) handleReadFile(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("filename")
	if name == "" {
		writeError(w, http.StatusBadRequest, "Filename is required")
		return
	}
	content, err := s.files.ReadAll(name)
	if err != nil {
		var perr tools.PathError
		if errors.As(err, &perr) {
			writeError(w, http.StatusBadRequest, perr.Message)
			return
		}
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}
		log.Printf("httpapi: reading %s: %v", name, err)
		writeError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"content": content})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	files, err := s.store.ListFiles()
	if err != nil {
		log.Printf("httpapi: listing catalog: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list catalog")
		return
	}
	if files == nil {
		files = []db.File{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files, "count": len(files)})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "No body in the request")
		return
	}
	var names []string
	if err := json.Unmarshal(body.Data, &names); err != nil {
		writeError(w, http.StatusBadRequest, "Data must be an array")
		return
	}
	if len(names) == 0 {
		writeError(w, http.StatusBadRequest, "Data array is empty")
		return
	}

	added, err := s.store.RegisterFiles(names)
	if errors.Is(err, db.ErrNothingAdded) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "All files already exist in the database"})
		return
	}
	if err != nil {
		log.Printf("httpapi: registering files: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to upload files")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Successfully uploaded names of %d files", added),
	})
}

func (s *Server) handleSaveFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file received")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) || name == ".." {
		writeError(w, http.StatusBadRequest, "Invalid file name")
		return
	}
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		log.Printf("httpapi: creating upload dir: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to save file")
		return
	}
	out, err := os.Create(filepath.Join(s.uploadDir, name))
	if err != nil {
		log.Printf("httpapi: creating %s: %v", name, err)
		writeError(w, http.StatusInternalServerError, "Failed to save file")
		return
	}
	defer out.Close()
	if _, err := io.Copy(out, file); err != nil {
		log.Printf("httpapi: writing %s: %v", name, err)
		writeError(w, http.StatusInternalServerError, "Failed to save file")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "File saved successfully",
		"path":    "/uploads/" + name,
	})
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	analyses, err := s.store.ListAnalyses(limit)
	if err != nil {
		log.Printf("httpapi: listing analyses: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list analyses")
		return
	}
	if analyses == nil {
		analyses = []db.Analysis{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyses": analyses})
}
