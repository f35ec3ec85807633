package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/auth"
	blobmemory "github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/blob/memory"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/files"
	"github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/share"
	storagememory "github.com/Anshuman-git-code/AWS-Drive-Storage/pkg/storage/memory"
)

var testSigningKey = []byte("server-test-signing-key")

type serverFixture struct {
	server *Server
	meta   *storagememory.MemoryMetadataStore
	blobs  *blobmemory.MemoryBlobStore
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	meta := storagememory.NewMemoryMetadataStore()
	blobs := blobmemory.NewMemoryBlobStore()

	filesService := files.NewService(files.ServiceConfig{Meta: meta, Blobs: blobs})
	shareEngine := share.NewEngine(share.EngineConfig{Meta: meta, Blobs: blobs})

	verifier := auth.NewStaticVerifier(func(_ *jwt.Token) (any, error) {
		return testSigningKey, nil
	}, 0, "")

	srv := New(Config{
		ListenAddress:   ":0",
		ReadTimeout:     time.Minute,
		WriteTimeout:    time.Minute,
		IdleTimeout:     time.Minute,
		ShutdownTimeout: time.Second,
		Files:           filesService,
		Shares:          shareEngine,
		Verifier:        verifier,
	})

	return &serverFixture{server: srv, meta: meta, blobs: blobs}
}

// token mints a signed bearer token for userID with the given role.
func token(t *testing.T, userID, role string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":   userID,
		"email": userID + "@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	if role != "" {
		claims["custom:role"] = role
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSigningKey)
	require.NoError(t, err)
	return signed
}

// do runs a request against the fixture's handler and returns the
// recorded response.
func (f *serverFixture) do(t *testing.T, method, target, bearer string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, body)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

// uploadFile uploads content through the multipart endpoint and returns
// the created file's id.
func (f *serverFixture) uploadFile(t *testing.T, bearer, filename, content string) string {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := f.do(t, http.MethodPost, "/api/files", bearer, &buf, mw.FormDataContentType())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		FileID string `json:"fileId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.FileID)
	return created.FileID
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealthz(t *testing.T) {
	fx := newServerFixture(t)

	rec := fx.do(t, http.MethodGet, "/healthz", "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	fx := newServerFixture(t)

	// No token.
	rec := fx.do(t, http.MethodGet, "/api/files", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Garbage token.
	rec = fx.do(t, http.MethodGet, "/api/files", "not-a-token", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Expired token.
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString(testSigningKey)
	require.NoError(t, err)
	rec = fx.do(t, http.MethodGet, "/api/files", expired, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUploadAndList(t *testing.T) {
	fx := newServerFixture(t)
	bearer := token(t, "u1", "")

	fileID := fx.uploadFile(t, bearer, "report.pdf", "pdf bytes")

	rec := fx.do(t, http.MethodGet, "/api/files", bearer, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Files []struct {
			FileID   string `json:"fileId"`
			Filename string `json:"filename"`
		} `json:"files"`
		Count      int    `json:"count"`
		NextCursor string `json:"nextCursor"`
	}
	decodeJSON(t, rec, &listing)

	require.Len(t, listing.Files, 1)
	assert.Equal(t, fileID, listing.Files[0].FileID)
	assert.Equal(t, "report.pdf", listing.Files[0].Filename)
	assert.Equal(t, 1, listing.Count)
	assert.Empty(t, listing.NextCursor)

	// Another user sees nothing.
	rec = fx.do(t, http.MethodGet, "/api/files", token(t, "u2", ""), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decodeJSON(t, rec, &listing)
	assert.Empty(t, listing.Files)
}

func TestUploadRejectsMissingFilePart(t *testing.T) {
	fx := newServerFixture(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("description", "no file here"))
	require.NoError(t, mw.Close())

	rec := fx.do(t, http.MethodPost, "/api/files", token(t, "u1", ""), &buf, mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadEndpoint(t *testing.T) {
	fx := newServerFixture(t)
	bearer := token(t, "u1", "")
	fileID := fx.uploadFile(t, bearer, "report.pdf", "pdf bytes")

	rec := fx.do(t, http.MethodGet, "/api/files/"+fileID+"/download", bearer, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		DownloadURL string `json:"downloadUrl"`
		ExpiresIn   int    `json:"expiresIn"`
	}
	decodeJSON(t, rec, &res)
	assert.NotEmpty(t, res.DownloadURL)
	assert.Equal(t, 3600, res.ExpiresIn)

	rec = fx.do(t, http.MethodGet, "/api/files/missing/download", bearer, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteEndpoint(t *testing.T) {
	fx := newServerFixture(t)
	bearer := token(t, "u1", "")
	fileID := fx.uploadFile(t, bearer, "report.pdf", "pdf bytes")

	// Non-owner cannot delete.
	rec := fx.do(t, http.MethodDelete, "/api/files/"+fileID, token(t, "u2", ""), nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Owner cannot permanently delete.
	rec = fx.do(t, http.MethodDelete, "/api/files/"+fileID+"?permanent=true", bearer, nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Owner soft delete succeeds.
	rec = fx.do(t, http.MethodDelete, "/api/files/"+fileID, bearer, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	// The file is gone from reads.
	rec = fx.do(t, http.MethodGet, "/api/files/"+fileID+"/download", bearer, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func createShare(t *testing.T, fx *serverFixture, bearer, fileID string, body map[string]any) string {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	rec := fx.do(t, http.MethodPost, "/api/files/"+fileID+"/share", bearer, bytes.NewReader(raw), "application/json")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		ShareID string `json:"shareId"`
	}
	decodeJSON(t, rec, &created)
	require.NotEmpty(t, created.ShareID)
	return created.ShareID
}

func TestShareLifecycleOverHTTP(t *testing.T) {
	fx := newServerFixture(t)
	bearer := token(t, "u1", "")
	fileID := fx.uploadFile(t, bearer, "report.pdf", "pdf bytes")

	shareID := createShare(t, fx, bearer, fileID, map[string]any{
		"expirationHours": 24,
	})

	// Redemption is public: no token required.
	rec := fx.do(t, http.MethodGet, "/api/shared/"+shareID, "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var redeemed struct {
		File struct {
			Filename string `json:"filename"`
		} `json:"file"`
		Share struct {
			AccessCount int `json:"accessCount"`
		} `json:"share"`
		DownloadURL string `json:"downloadUrl"`
	}
	decodeJSON(t, rec, &redeemed)
	assert.Equal(t, "report.pdf", redeemed.File.Filename)
	assert.Equal(t, 1, redeemed.Share.AccessCount)
	assert.NotEmpty(t, redeemed.DownloadURL)

	// Deactivation requires identity; afterwards the link reads as missing.
	rec = fx.do(t, http.MethodDelete, "/api/shares/"+shareID, bearer, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = fx.do(t, http.MethodGet, "/api/shared/"+shareID, "", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRedeemStatusMapping(t *testing.T) {
	fx := newServerFixture(t)
	bearer := token(t, "u1", "")
	fileID := fx.uploadFile(t, bearer, "report.pdf", "pdf bytes")

	// Unknown share id.
	rec := fx.do(t, http.MethodGet, "/api/shared/nope", "", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Password-protected share: missing password asks for one, a wrong
	// password is rejected, the right one succeeds.
	shareID := createShare(t, fx, bearer, fileID, map[string]any{
		"password": "hunter2",
	})

	rec = fx.do(t, http.MethodGet, "/api/shared/"+shareID, "", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body struct {
		Code             string `json:"code"`
		RequiresPassword bool   `json:"requiresPassword"`
	}
	decodeJSON(t, rec, &body)
	assert.Equal(t, "password_required", body.Code)
	assert.True(t, body.RequiresPassword)

	rec = fx.do(t, http.MethodGet, "/api/shared/"+shareID+"?password=wrong", "", nil, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	body.RequiresPassword = false
	decodeJSON(t, rec, &body)
	assert.Equal(t, "invalid_password", body.Code)
	assert.False(t, body.RequiresPassword)

	rec = fx.do(t, http.MethodGet, "/api/shared/"+shareID+"?password=hunter2", "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// Access-limited share replies 429 once exhausted.
	limited := createShare(t, fx, bearer, fileID, map[string]any{
		"maxAccess": 1,
	})
	rec = fx.do(t, http.MethodGet, "/api/shared/"+limited, "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = fx.do(t, http.MethodGet, "/api/shared/"+limited, "", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Download action on a download-disabled share is forbidden.
	noDownload := createShare(t, fx, bearer, fileID, map[string]any{
		"allowDownload": false,
	})
	rec = fx.do(t, http.MethodGet, "/api/shared/"+noDownload+"?action=download", "", nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Unknown action is a bad request.
	rec = fx.do(t, http.MethodGet, "/api/shared/"+noDownload+"?action=peek", "", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRedemptionRateLimit(t *testing.T) {
	meta := storagememory.NewMemoryMetadataStore()
	blobs := blobmemory.NewMemoryBlobStore()

	// One request of burst, nothing sustained within the test window.
	srv := New(Config{
		ListenAddress:   ":0",
		ReadTimeout:     time.Minute,
		WriteTimeout:    time.Minute,
		IdleTimeout:     time.Minute,
		ShutdownTimeout: time.Second,
		RedeemRateLimit: 1,
		RedeemRateBurst: 1,
		Files:           files.NewService(files.ServiceConfig{Meta: meta, Blobs: blobs}),
		Shares:          share.NewEngine(share.EngineConfig{Meta: meta, Blobs: blobs}),
		Verifier: auth.NewStaticVerifier(func(_ *jwt.Token) (any, error) {
			return testSigningKey, nil
		}, 0, ""),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/shared/some-id", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code, "first request passes the limiter")

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "second request is throttled")
}

func TestCreateShareValidationOverHTTP(t *testing.T) {
	fx := newServerFixture(t)
	bearer := token(t, "u1", "")
	fileID := fx.uploadFile(t, bearer, "report.pdf", "pdf bytes")

	// Out-of-range expiration.
	raw, _ := json.Marshal(map[string]any{"expirationHours": 9000})
	rec := fx.do(t, http.MethodPost, "/api/files/"+fileID+"/share", bearer, bytes.NewReader(raw), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Sharing someone else's file as a plain viewer.
	rec = fx.do(t, http.MethodPost, fmt.Sprintf("/api/files/%s/share", fileID), token(t, "u2", ""), nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Sharing a missing file.
	rec = fx.do(t, http.MethodPost, "/api/files/missing/share", bearer, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Admins may share files they do not own.
	rec = fx.do(t, http.MethodPost, "/api/files/"+fileID+"/share", token(t, "boss", "admin"), nil, "")
	assert.Equal(t, http.StatusCreated, rec.Code)
}
