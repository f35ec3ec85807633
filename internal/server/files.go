package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/files"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/metrics"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/storage"
)

// multipartMemoryLimit is how much of a multipart body is buffered in
// memory before spilling to disk. The upload itself streams from the
// part reader regardless.
const multipartMemoryLimit = 32 << 20

// fileView is the public JSON shape of a file record. It omits internal
// fields like the storage key.
type fileView struct {
	FileID       string     `json:"fileId"`
	Filename     string     `json:"filename"`
	ContentType  string     `json:"contentType"`
	SizeBytes    int64      `json:"fileSize"`
	UploadedAt   time.Time  `json:"uploadDate"`
	ModifiedAt   time.Time  `json:"lastModified"`
	IsPublic     bool       `json:"isPublic"`
	Tags         []string   `json:"tags,omitempty"`
	Description  string     `json:"description,omitempty"`
	ShareCount   int        `json:"shareCount"`
	LastSharedAt *time.Time `json:"lastSharedAt,omitempty"`
}

func viewOf(f *storage.File) fileView {
	return fileView{
		FileID:       f.ID,
		Filename:     f.Filename,
		ContentType:  f.ContentType,
		SizeBytes:    f.SizeBytes,
		UploadedAt:   f.CreatedAt,
		ModifiedAt:   f.LastModifiedAt,
		IsPublic:     f.IsPublic,
		Tags:         f.Tags,
		Description:  f.Description,
		ShareCount:   f.ShareCount,
		LastSharedAt: f.LastSharedAt,
	}
}

// handleUpload accepts a multipart upload. The file goes in the "file"
// part; optional "description", "tags" (comma-separated) and "isPublic"
// parts carry metadata.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		metrics.FileOperations.WithLabelValues("upload", storage.ErrInvalidArgument.String()).Inc()
		writeError(w, r, storage.InvalidArgument("request body must be multipart/form-data"))
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		metrics.FileOperations.WithLabelValues("upload", storage.ErrInvalidArgument.String()).Inc()
		writeError(w, r, storage.InvalidArgument("multipart field \"file\" is required"))
		return
	}
	defer part.Close()

	var tags []string
	if raw := r.FormValue("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	file, err := s.files.Upload(r.Context(), claims, files.UploadInput{
		Filename:    header.Filename,
		Content:     part,
		SizeBytes:   header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Tags:        tags,
		Description: r.FormValue("description"),
		IsPublic:    r.FormValue("isPublic") == "true",
	})
	metrics.FileOperations.WithLabelValues("upload", outcomeOf(err)).Inc()
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, viewOf(file))
}

// handleListFiles returns the caller's files, newest first. Query
// parameters: limit, cursor, search, type.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	opts := files.ListOptions{
		Cursor:     r.URL.Query().Get("cursor"),
		Search:     r.URL.Query().Get("search"),
		TypePrefix: r.URL.Query().Get("type"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeError(w, r, storage.InvalidArgument("limit must be a positive integer"))
			return
		}
		opts.Limit = limit
	}

	page, next, err := s.files.List(r.Context(), claims, opts)
	metrics.FileOperations.WithLabelValues("list", outcomeOf(err)).Inc()
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]fileView, 0, len(page))
	for _, f := range page {
		views = append(views, viewOf(f))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"files":      views,
		"count":      len(views),
		"nextCursor": next,
	})
}

// handleDownload mints a presigned download URL for a file the caller
// may read.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	fileID := chi.URLParam(r, "fileID")

	res, err := s.files.Download(r.Context(), claims, fileID)
	metrics.FileOperations.WithLabelValues("download", outcomeOf(err)).Inc()
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// handleDeleteFile removes a file. ?permanent=true requests a permanent
// delete (admin only); the default is a soft delete.
func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	fileID := chi.URLParam(r, "fileID")
	permanent := r.URL.Query().Get("permanent") == "true"

	res, err := s.files.Delete(r.Context(), claims, fileID, permanent)
	metrics.FileOperations.WithLabelValues("delete", outcomeOf(err)).Inc()
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
