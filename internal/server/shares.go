package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/metrics"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/share"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/storage"
)

// createShareRequest is the JSON body for share creation.
type createShareRequest struct {
	ExpirationHours int    `json:"expirationHours"`
	Password        string `json:"password"`
	AllowDownload   *bool  `json:"allowDownload"`
	MaxAccess       *int   `json:"maxAccess"`
}

// handleCreateShare creates a share link for a file the caller owns.
func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	fileID := chi.URLParam(r, "fileID")

	var req createShareRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, storage.InvalidArgument("invalid JSON body"))
			return
		}
	}

	// Downloads are allowed unless the caller explicitly disables them.
	allowDownload := true
	if req.AllowDownload != nil {
		allowDownload = *req.AllowDownload
	}

	res, err := s.shares.CreateShare(r.Context(), fileID, claims, share.CreateOptions{
		ExpirationHours: req.ExpirationHours,
		Password:        req.Password,
		AllowDownload:   allowDownload,
		MaxAccess:       req.MaxAccess,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

// redeemResponse is the JSON shape of a successful redemption.
type redeemResponse struct {
	File        share.RedeemedFile  `json:"file"`
	Share       share.RedeemedShare `json:"share"`
	DownloadURL string              `json:"downloadUrl,omitempty"`
	ExpiresIn   int                 `json:"expiresIn,omitempty"`
}

// handleRedeemShare redeems a share link. The route is public; the share
// id in the path is the capability. Query parameters: action (view or
// download, default view) and password for protected shares.
func (s *Server) handleRedeemShare(w http.ResponseWriter, r *http.Request) {
	shareID := chi.URLParam(r, "shareID")
	password := r.URL.Query().Get("password")
	action := share.RedeemAction(r.URL.Query().Get("action"))

	res, err := s.shares.RedeemShare(r.Context(), shareID, password, action)
	metrics.ShareRedemptions.WithLabelValues(outcomeOf(err)).Inc()
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, redeemResponse{
		File:        res.File,
		Share:       res.Share,
		DownloadURL: res.DownloadURL,
		ExpiresIn:   res.DownloadExpiresIn,
	})
}

// handleDeactivateShare revokes a share link. Only the user who created
// the share or an admin may revoke it.
func (s *Server) handleDeactivateShare(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	shareID := chi.URLParam(r, "shareID")

	if err := s.shares.DeactivateShare(r.Context(), shareID, claims); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"shareId":     shareID,
		"deactivated": true,
	})
}
