package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmichie/greenie/pkg/store"
	"github.com/mmichie/greenie/pkg/vision"
)

const (
	multipartMemory = 32 << 20
	titleLength     = 60
	historyTimeout  = 5 * time.Second
)

var unsafeFilename = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ChatResponse is the reply to POST /api/chat
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id,omitempty"`
}

// SessionsResponse lists chat sessions
type SessionsResponse struct {
	Sessions []store.Session `json:"sessions"`
}

// MessagesResponse lists the messages of one session
type MessagesResponse struct {
	SessionID string          `json:"session_id"`
	Messages  []store.Message `json:"messages"`
}

// CreateSessionRequest is the body of POST /api/sessions
type CreateSessionRequest struct {
	UserID string `json:"user_id"`
	Title  string `json:"title"`
}

// ModelResponse describes the active model
type ModelResponse struct {
	Model     string `json:"model"`
	Available bool   `json:"available"`
}

// ModelRequest is the body of PUT /api/model
type ModelRequest struct {
	Model string `json:"model"`
}

func (s *Server) chatHandler(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			err = r.ParseForm()
		}
		if err != nil {
			return formError(err)
		}
	}

	message := strings.TrimSpace(r.FormValue("message"))
	if message == "" {
		return missingFields("message")
	}

	image, imagePath, err := s.saveUpload(r)
	if err != nil {
		return err
	}

	ctx := r.Context()
	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	sessionID := strings.TrimSpace(r.FormValue("session_id"))
	userID := strings.TrimSpace(r.FormValue("user_id"))
	sessionID = s.recordTurn(r.Context(), sessionID, userID, store.RoleUser, message, imagePath)

	response := s.runner.Run(ctx, message, image)

	s.recordTurn(r.Context(), sessionID, userID, store.RoleAssistant, response, "")

	writeJSON(w, http.StatusOK, ChatResponse{Response: response, SessionID: sessionID})
	return nil
}

// formError keeps body size errors for the 413 mapping and reports
// everything else as a malformed form
func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return badRequest("Invalid form data", map[string]any{"error": err.Error()})
}

// saveUpload stores the optional image part under the upload directory
func (s *Server) saveUpload(r *http.Request) (*vision.Image, string, error) {
	if r.MultipartForm == nil {
		return nil, "", nil
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", badRequest("Invalid image upload", map[string]any{"error": err.Error()})
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, "", &AppError{
			Status:  http.StatusRequestEntityTooLarge,
			Message: "Image too large",
			Details: map[string]any{"limit_bytes": s.cfg.MaxUploadBytes},
		}
	}

	image := vision.NewImage(header.Filename, data)
	if image.Empty() {
		return nil, "", nil
	}
	if !strings.HasPrefix(image.MIMEType, "image/") {
		return nil, "", badRequest("Uploaded file is not an image", map[string]any{"content_type": image.MIMEType})
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return nil, "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	path := filepath.Join(s.cfg.UploadDir, uploadName(header.Filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, "", fmt.Errorf("failed to save upload: %w", err)
	}

	s.logger.Debug().Str("path", path).Int("bytes", len(data)).Msg("saved upload")
	return image, path, nil
}

// uploadName makes a client filename safe and unique
func uploadName(original string) string {
	base := unsafeFilename.ReplaceAllString(filepath.Base(original), "_")
	base = strings.Trim(base, "._")
	if base == "" {
		base = "image"
	}
	return uuid.NewString()[:8] + "_" + base
}

// recordTurn persists one message and returns the session it belongs to.
// Persistence failures are logged; they never fail the chat request. The
// write is detached from ctx cancellation so a reply produced after a
// timeout or client disconnect is still stored.
func (s *Server) recordTurn(ctx context.Context, sessionID, userID, role, content, imagePath string) string {
	if !s.history.Enabled() || (sessionID == "" && role != store.RoleUser) {
		return sessionID
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()

	if sessionID == "" {
		session, err := s.history.SaveChatSession(ctx, store.Session{UserID: userID, Title: title(content)})
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to create chat session")
			return ""
		}
		sessionID = session.ID
	} else if role == store.RoleUser {
		if err := s.history.EnsureSession(ctx, sessionID, userID); err != nil {
			s.logger.Error().Err(err).Str("session_id", sessionID).Msg("failed to ensure chat session")
			return sessionID
		}
	}

	_, err := s.history.SaveChatMessage(ctx, store.Message{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		ImagePath: imagePath,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Str("role", role).Msg("failed to save chat message")
	}
	return sessionID
}

func title(message string) string {
	message = strings.Join(strings.Fields(message), " ")
	if r := []rune(message); len(r) > titleLength {
		return string(r[:titleLength]) + "..."
	}
	return message
}

func (s *Server) listSessionsHandler(w http.ResponseWriter, r *http.Request) error {
	sessions, err := s.history.GetChatSessions(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		return historyError(err)
	}
	if sessions == nil {
		sessions = []store.Session{}
	}
	writeJSON(w, http.StatusOK, SessionsResponse{Sessions: sessions})
	return nil
}

func (s *Server) createSessionHandler(w http.ResponseWriter, r *http.Request) error {
	var req CreateSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return badRequest("Invalid JSON body", map[string]any{"error": err.Error()})
		}
	}

	session, err := s.history.SaveChatSession(r.Context(), store.Session{UserID: req.UserID, Title: req.Title})
	if err != nil {
		return historyError(err)
	}
	writeJSON(w, http.StatusCreated, session)
	return nil
}

func (s *Server) messagesHandler(w http.ResponseWriter, r *http.Request) error {
	sessionID := r.PathValue("id")
	messages, err := s.history.GetChatMessages(r.Context(), sessionID)
	if err != nil {
		return historyError(err)
	}
	if messages == nil {
		messages = []store.Message{}
	}
	writeJSON(w, http.StatusOK, MessagesResponse{SessionID: sessionID, Messages: messages})
	return nil
}

func historyError(err error) error {
	if errors.Is(err, store.ErrNotConfigured) {
		return &AppError{Status: http.StatusServiceUnavailable, Message: "Database not configured", Err: err}
	}
	return err
}

func (s *Server) getModelHandler(w http.ResponseWriter, r *http.Request) error {
	if s.models == nil {
		return &AppError{Status: http.StatusServiceUnavailable, Message: "Model management not available"}
	}
	writeJSON(w, http.StatusOK, ModelResponse{Model: s.models.Model(), Available: s.models.Available()})
	return nil
}

func (s *Server) setModelHandler(w http.ResponseWriter, r *http.Request) error {
	if s.models == nil {
		return &AppError{Status: http.StatusServiceUnavailable, Message: "Model management not available"}
	}

	var req ModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return badRequest("Invalid JSON body", map[string]any{"error": err.Error()})
	}
	if strings.TrimSpace(req.Model) == "" {
		return missingFields("model")
	}
	if !s.models.SwitchModel(req.Model) {
		return badRequest(fmt.Sprintf("Unsupported model: %s", req.Model), map[string]any{"model": req.Model})
	}

	s.logger.Info().Str("model", req.Model).Msg("switched model")
	writeJSON(w, http.StatusOK, ModelResponse{Model: s.models.Model(), Available: s.models.Available()})
	return nil
}
