package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/jun/letterdrive/backend/internal/crypto"
	"github.com/jun/letterdrive/backend/internal/model"
	"golang.org/x/oauth2"
	googleoauth "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

// ErrUserNotFound is returned when no token is stored for a Google user.
var ErrUserNotFound = errors.New("user not found")

// AuthService handles the Google OAuth2 flow and keeps each user's refresh
// token, encrypted, in DynamoDB.
type AuthService struct {
	oauthConfig  *oauth2.Config
	dynamoClient *dynamodb.Client
	tableName    string
	kmsService   crypto.Encryptor

	// In-memory fallback
	tokens map[string]model.UserToken
	mu     sync.RWMutex
}

// NewAuthService creates a new AuthService. A nil dynamoClient keeps tokens
// in memory.
func NewAuthService(oauthConfig *oauth2.Config, dynamoClient *dynamodb.Client, tableName string, kmsService crypto.Encryptor) *AuthService {
	return &AuthService{
		oauthConfig:  oauthConfig,
		dynamoClient: dynamoClient,
		tableName:    tableName,
		kmsService:   kmsService,
		tokens:       make(map[string]model.UserToken),
	}
}

// GenerateAuthURL returns the URL to redirect the user to for Google login.
func (s *AuthService) GenerateAuthURL(state string) string {
	return s.oauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExchangeCode exchanges the authorization code for an access token.
func (s *AuthService) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	return s.oauthConfig.Exchange(ctx, code)
}

// FetchProfile asks Google who owns token.
func (s *AuthService) FetchProfile(ctx context.Context, token *oauth2.Token) (model.User, error) {
	svc, err := googleoauth.NewService(ctx, option.WithTokenSource(s.oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return model.User{}, fmt.Errorf("failed to create oauth2 service: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return model.User{}, fmt.Errorf("failed to get user info: %w", err)
	}
	return model.User{ID: info.Id, Email: info.Email, Name: info.Name, GoogleAuth: true}, nil
}

// SaveToken encrypts the refresh token and stores it with the user's
// profile. Google omits the refresh token on repeat consents; the stored
// one is kept in that case.
func (s *AuthService) SaveToken(ctx context.Context, user model.User, token *oauth2.Token) error {
	existing, err := s.GetUserToken(ctx, user.ID)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return err
	}

	userToken := model.UserToken{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		UpdatedAt: time.Now(),
	}
	if existing != nil {
		userToken.EncryptedRefreshToken = existing.EncryptedRefreshToken
		userToken.LettersFolderID = existing.LettersFolderID
	}

	if token.RefreshToken != "" {
		encrypted, err := s.kmsService.Encrypt(ctx, token.RefreshToken)
		if err != nil {
			return fmt.Errorf("failed to encrypt refresh token: %w", err)
		}
		userToken.EncryptedRefreshToken = encrypted
	}
	if userToken.EncryptedRefreshToken == "" {
		return fmt.Errorf("no refresh token in response")
	}

	if s.dynamoClient == nil {
		s.mu.Lock()
		s.tokens[user.ID] = userToken
		s.mu.Unlock()
		return nil
	}

	item, err := attributevalue.MarshalMap(userToken)
	if err != nil {
		return fmt.Errorf("failed to marshal user token: %w", err)
	}

	_, err = s.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save token to DynamoDB: %w", err)
	}

	return nil
}

// GetUserToken retrieves the stored token of a Google user.
func (s *AuthService) GetUserToken(ctx context.Context, userID string) (*model.UserToken, error) {
	var userToken model.UserToken

	if s.dynamoClient == nil {
		s.mu.RLock()
		t, ok := s.tokens[userID]
		s.mu.RUnlock()
		if !ok {
			return nil, ErrUserNotFound
		}
		userToken = t
	} else {
		out, err := s.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(s.tableName),
			Key: map[string]types.AttributeValue{
				"user_id": &types.AttributeValueMemberS{Value: userID},
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get item from DynamoDB: %w", err)
		}
		if out.Item == nil {
			return nil, ErrUserNotFound
		}

		if err := attributevalue.UnmarshalMap(out.Item, &userToken); err != nil {
			return nil, fmt.Errorf("failed to unmarshal user token: %w", err)
		}
	}
	return &userToken, nil
}

// UpdateLettersFolderID records the Drive folder that holds a user's letters.
func (s *AuthService) UpdateLettersFolderID(ctx context.Context, userID, folderID string) error {
	if s.dynamoClient == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		t, ok := s.tokens[userID]
		if !ok {
			return ErrUserNotFound
		}
		t.LettersFolderID = folderID
		t.UpdatedAt = time.Now()
		s.tokens[userID] = t
		return nil
	}

	_, err := s.dynamoClient.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
		UpdateExpression: aws.String("SET letters_folder_id = :fid, updated_at = :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":fid": &types.AttributeValueMemberS{Value: folderID},
			":now": &types.AttributeValueMemberS{Value: time.Now().Format(time.RFC3339)},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update letters folder id: %w", err)
	}

	return nil
}

// GetClient returns an http.Client that acts for the user on Google APIs.
func (s *AuthService) GetClient(ctx context.Context, userID string) (*http.Client, error) {
	userToken, err := s.GetUserToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.kmsService.Decrypt(ctx, userToken.EncryptedRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-1 * time.Hour), // Force refresh
	}

	return oauth2.NewClient(ctx, s.oauthConfig.TokenSource(ctx, token)), nil
}
