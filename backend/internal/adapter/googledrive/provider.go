package googledrive

import (
	"context"
	"fmt"
	"log"

	"github.com/jun/letterdrive/backend/internal/adapter"
	"github.com/jun/letterdrive/backend/internal/auth"
)

// Provider implements adapter.StorageProvider for Google Drive.
type Provider struct {
	authService *auth.AuthService
	folderName  string
}

// NewProvider creates a new Google Drive provider. Letters are kept in the
// My Drive folder called folderName.
func NewProvider(authService *auth.AuthService, folderName string) *Provider {
	return &Provider{authService: authService, folderName: folderName}
}

// GetAdapter returns a DriveAdapter for the given user ID. The letters
// folder is located or created on first use and remembered with the user's
// token.
func (p *Provider) GetAdapter(ctx context.Context, userID string) (adapter.StorageAdapter, error) {
	token, err := p.authService.GetUserToken(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user token: %w", err)
	}

	client, err := p.authService.GetClient(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated client: %w", err)
	}

	storage, err := NewDriveAdapter(ctx, client, token.LettersFolderID)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive adapter: %w", err)
	}

	if storage.FolderID == "" {
		folderID, err := storage.EnsureRootFolder(ctx, p.folderName)
		if err != nil {
			return nil, err
		}
		if err := p.authService.UpdateLettersFolderID(ctx, userID, folderID); err != nil {
			log.Printf("UpdateLettersFolderID error: %v", err)
		}
		storage.FolderID = folderID
	}

	return storage, nil
}
