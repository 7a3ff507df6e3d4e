package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/DAC098/TJ2-sub001/internal/common"
	"github.com/DAC098/TJ2-sub001/internal/ids"
	"github.com/DAC098/TJ2-sub001/internal/keys"
	"github.com/DAC098/TJ2-sub001/internal/server/models"
)

type handshakeRequest struct {
	PublicKey string `json:"public_key"`
	Challenge string `json:"challenge"`
}

type handshakeResponse struct {
	Result    string `json:"result"`
	Challenge string `json:"challenge"`
	Token     string `json:"token"`
}

func (s *Server) handleHandshake(w http.ResponseWriter, r *http.Request) {
	var req handshakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %s", common.ErrorValidation, err))
		return
	}

	claimed, err := keys.PublicKeyFromBase64(req.PublicKey)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: public_key: %s", common.ErrorValidation, err))
		return
	}
	challenge, err := base64.StdEncoding.DecodeString(req.Challenge)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: challenge: %s", common.ErrorValidation, err))
		return
	}

	result, err := s.auth.Handshake(r.Context(), claimed, challenge)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "handshake completed", "public_key", claimed.Hex())
	writeJSON(w, http.StatusOK, handshakeResponse{
		Result:    base64.StdEncoding.EncodeToString(result.Result),
		Challenge: base64.StdEncoding.EncodeToString(result.Challenge),
		Token:     result.Token,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %s", common.ErrorValidation, err))
		return
	}
	if req.Username == "" || req.Password == "" {
		s.writeError(w, r, fmt.Errorf("%w: username and password are required", common.ErrorValidation))
		return
	}

	session, token, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresOn,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	s.logger.Info(r.Context(), "login", "username", req.Username)
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

type verifyRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %s", common.ErrorValidation, err))
		return
	}

	session := sessionFromContext(r.Context())
	if err := s.auth.Verify(r.Context(), session, req.Code); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type entrySyncRequest struct {
	ID           string          `json:"id"`
	JournalID    string          `json:"journal_id"`
	Date         time.Time       `json:"date"`
	Title        *string         `json:"title"`
	Contents     *string         `json:"contents"`
	Tags         []tagSyncJSON   `json:"tags"`
	CustomFields []fieldSyncJSON `json:"custom_fields"`
	Files        []fileSyncJSON  `json:"files"`
	Created      time.Time       `json:"created"`
	Updated      *time.Time      `json:"updated"`
}

type tagSyncJSON struct {
	Key     string     `json:"key"`
	Value   *string    `json:"value"`
	Created time.Time  `json:"created"`
	Updated *time.Time `json:"updated"`
}

type fieldSyncJSON struct {
	FieldID string     `json:"field_id"`
	Value   string     `json:"value"`
	Created time.Time  `json:"created"`
	Updated *time.Time `json:"updated"`
}

type fileSyncJSON struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

func (req *entrySyncRequest) toModel() (*models.EntrySync, error) {
	entryID, err := ids.ParseEntryID(req.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: id: %s", common.ErrorValidation, err)
	}
	journalID, err := ids.ParseJournalID(req.JournalID)
	if err != nil {
		return nil, fmt.Errorf("%w: journal_id: %s", common.ErrorValidation, err)
	}

	payload := &models.EntrySync{
		ID:        entryID,
		JournalID: journalID,
		Date:      req.Date,
		Title:     req.Title,
		Contents:  req.Contents,
		Created:   req.Created,
		Updated:   req.Updated,
	}
	for _, tag := range req.Tags {
		if tag.Key == "" {
			return nil, fmt.Errorf("%w: tag key is required", common.ErrorValidation)
		}
		payload.Tags = append(payload.Tags, models.TagSync{
			Key: tag.Key, Value: tag.Value, Created: tag.Created, Updated: tag.Updated,
		})
	}
	for _, field := range req.CustomFields {
		fieldID, err := ids.ParseFieldID(field.FieldID)
		if err != nil {
			return nil, fmt.Errorf("%w: field_id: %s", common.ErrorValidation, err)
		}
		payload.CustomFields = append(payload.CustomFields, models.CustomFieldSync{
			FieldID: fieldID, Value: field.Value, Created: field.Created, Updated: field.Updated,
		})
	}
	for _, file := range req.Files {
		uid, err := ids.ParseFileUID(file.UID)
		if err != nil {
			return nil, fmt.Errorf("%w: file uid: %s", common.ErrorValidation, err)
		}
		if file.Name == "" {
			return nil, fmt.Errorf("%w: file name is required", common.ErrorValidation)
		}
		payload.Files = append(payload.Files, models.FileSync{UID: uid, Name: file.Name})
	}
	return payload, nil
}

func (s *Server) handleSyncEntries(w http.ResponseWriter, r *http.Request) {
	var req entrySyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %s", common.ErrorValidation, err))
		return
	}

	payload, err := req.toModel()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	session := sessionFromContext(r.Context())
	if err := s.sync.SyncEntry(r.Context(), session.UserID, payload); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "entry synchronized", "entry_id", payload.ID.String())
	w.WriteHeader(http.StatusNoContent)
}

type fileEntryResponse struct {
	UID    string  `json:"uid"`
	Name   string  `json:"name"`
	Size   int64   `json:"size"`
	Hash   *string `json:"hash"`
	Status string  `json:"status"`
}

func (s *Server) handleReceiveFile(w http.ResponseWriter, r *http.Request) {
	uid, err := ids.ParseFileUID(r.PathValue("uid"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: uid: %s", common.ErrorValidation, err))
		return
	}

	session := sessionFromContext(r.Context())
	row, err := s.sync.ReceiveFile(r.Context(), session.UserID, uid, r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "file received", "uid", uid.String(), "size", row.Size)
	writeJSON(w, http.StatusOK, fileEntryResponse{
		UID:    row.UID.String(),
		Name:   row.Name,
		Size:   row.Size,
		Hash:   row.Hash,
		Status: string(row.Status),
	})
}

type fileURLResponse struct {
	URL string `json:"url"`
}

func (s *Server) handleFileURL(w http.ResponseWriter, r *http.Request) {
	uid, err := ids.ParseFileUID(r.PathValue("uid"))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: uid: %s", common.ErrorValidation, err))
		return
	}

	session := sessionFromContext(r.Context())
	url, err := s.storage.PresignDownload(r.Context(), session.UserID, uid)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, fileURLResponse{URL: url})
}
