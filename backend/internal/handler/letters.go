package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/jun/letterdrive/backend/internal/adapter"
	"github.com/jun/letterdrive/backend/internal/listcache"
	"github.com/jun/letterdrive/backend/internal/model"
)

const maxTitleLength = 60

// LetterHandler lists, uploads and serves letters.
type LetterHandler struct {
	storageProvider adapter.StorageProvider
	cache           listcache.Cache
	limiter         *UploadLimiter
	jwtSecret       string
	folderName      string
	now             func() time.Time
}

// NewLetterHandler creates a new LetterHandler. Letters live in the folder
// called folderName of each user's storage.
func NewLetterHandler(provider adapter.StorageProvider, cache listcache.Cache, limiter *UploadLimiter, jwtSecret, folderName string) *LetterHandler {
	return &LetterHandler{
		storageProvider: provider,
		cache:           cache,
		limiter:         limiter,
		jwtSecret:       jwtSecret,
		folderName:      folderName,
		now:             time.Now,
	}
}

// storage returns the user's adapter and letters folder.
func (h *LetterHandler) storage(ctx context.Context, userID string) (adapter.StorageAdapter, string, error) {
	storage, err := h.storageProvider.GetAdapter(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get storage adapter: %w", err)
	}
	folderID, err := storage.EnsureRootFolder(ctx, h.folderName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to ensure letters folder: %w", err)
	}
	return storage, folderID, nil
}

// ListFilesOAuth lists the letters of a Google user signed in by cookie.
func (h *LetterHandler) ListFilesOAuth(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	id, err := GetIdentity(req, h.jwtSecret)
	if err != nil || id.Bearer || id.Provider != ProviderGoogle {
		return unauthorized(), nil
	}
	return h.list(ctx, id.UserID), nil
}

// ListFiles lists the letters of a caller presenting a bearer token.
func (h *LetterHandler) ListFiles(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	id, err := GetIdentity(req, h.jwtSecret)
	if err != nil || !id.Bearer {
		return unauthorized(), nil
	}
	return h.list(ctx, id.UserID), nil
}

func (h *LetterHandler) list(ctx context.Context, userID string) events.APIGatewayProxyResponse {
	letters, ok, err := h.cache.Get(ctx, userID)
	if err != nil {
		fmt.Printf("Cache get error: %v\n", err)
	}
	if ok {
		return jsonResponse(http.StatusOK, model.LetterList{Files: letters})
	}

	storage, folderID, err := h.storage(ctx, userID)
	if err != nil {
		fmt.Printf("ListFiles error: %v\n", err)
		return textResponse(http.StatusInternalServerError, "Failed to list letters")
	}

	files, err := storage.ListFiles(ctx, folderID)
	if err != nil {
		fmt.Printf("ListFiles error: %v\n", err)
		return textResponse(http.StatusInternalServerError, "Failed to list letters")
	}

	letters = make([]model.Letter, 0, len(files))
	for _, f := range files {
		letters = append(letters, model.Letter{
			ID:           f.ID,
			Name:         f.Name,
			WebViewLink:  f.WebViewLink,
			ModifiedTime: f.ModifiedTime,
		})
	}

	if err := h.cache.Set(ctx, userID, letters); err != nil {
		fmt.Printf("Cache set error: %v\n", err)
	}
	return jsonResponse(http.StatusOK, model.LetterList{Files: letters})
}

// letterTitle names a letter after its first line, or after the time it
// was uploaded when that line is blank.
func letterTitle(content string, now time.Time) string {
	line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(content), "\n", 2)[0])
	line = strings.TrimLeft(line, "#* ")
	line = strings.NewReplacer("/", "-", `\`, "-").Replace(line)
	if line == "" {
		return "Letter " + now.Format("2006-01-02 15:04:05")
	}
	if utf8.RuneCountInString(line) > maxTitleLength {
		line = string([]rune(line)[:maxTitleLength])
	}
	return line
}

// Upload stores a new letter for the signed-in user.
func (h *LetterHandler) Upload(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	id, err := GetIdentity(req, h.jwtSecret)
	if err != nil {
		return unauthorized(), nil
	}

	var payload struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal([]byte(req.Body), &payload); err != nil {
		return textResponse(http.StatusBadRequest, "Invalid request body"), nil
	}
	if strings.TrimSpace(payload.Content) == "" {
		return textResponse(http.StatusBadRequest, "Content is required"), nil
	}

	if !h.limiter.Allow(id.UserID) {
		return textResponse(http.StatusTooManyRequests, "Too many uploads, try again later"), nil
	}

	storage, folderID, err := h.storage(ctx, id.UserID)
	if err != nil {
		fmt.Printf("Upload error: %v\n", err)
		return textResponse(http.StatusInternalServerError, "Failed to upload letter"), nil
	}

	file, err := storage.CreateFile(ctx, letterTitle(payload.Content, h.now()), []byte(payload.Content), folderID)
	if err != nil {
		if errors.Is(err, adapter.ErrLimitExceeded) {
			return textResponse(http.StatusRequestEntityTooLarge, err.Error()), nil
		}
		fmt.Printf("CreateFile error: %v\n", err)
		return textResponse(http.StatusInternalServerError, "Failed to upload letter"), nil
	}

	if err := h.cache.Invalidate(ctx, id.UserID); err != nil {
		fmt.Printf("Cache invalidate error: %v\n", err)
	}

	return jsonResponse(http.StatusOK, file), nil
}

// GetLetter returns the text of one of the caller's letters.
func (h *LetterHandler) GetLetter(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	id, err := GetIdentity(req, h.jwtSecret)
	if err != nil {
		return unauthorized(), nil
	}

	letterID := req.PathParameters["id"]
	if letterID == "" {
		return textResponse(http.StatusBadRequest, "Missing letter ID"), nil
	}

	storage, err := h.storageProvider.GetAdapter(ctx, id.UserID)
	if err != nil {
		fmt.Printf("GetAdapter error: %v\n", err)
		return textResponse(http.StatusInternalServerError, "Failed to get storage adapter"), nil
	}

	file, err := storage.GetFile(ctx, letterID)
	if errors.Is(err, adapter.ErrNotFound) {
		return textResponse(http.StatusNotFound, "Letter not found"), nil
	}
	if err != nil {
		fmt.Printf("GetFile error: %v\n", err)
		return textResponse(http.StatusInternalServerError, "Failed to get letter"), nil
	}

	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Body:       string(file.Content),
		Headers: map[string]string{
			"Content-Type": "text/plain; charset=utf-8",
		},
	}, nil
}
