package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/jun/letterdrive/backend/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// LocalUserPrefix marks user IDs that belong to username/password accounts.
const LocalUserPrefix = "local-"

const (
	minUsernameLength = 3
	maxUsernameLength = 64
	minPasswordLength = 8
	// bcrypt ignores bytes past 72.
	maxPasswordLength = 72
)

var (
	ErrAccountExists      = errors.New("account already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidUsername    = errors.New("username must be 3-64 characters without spaces")
	ErrInvalidPassword    = errors.New("password must be 8-72 bytes")
)

// IsLocalUser reports whether userID belongs to a username/password account.
func IsLocalUser(userID string) bool {
	return strings.HasPrefix(userID, LocalUserPrefix)
}

// AccountService keeps username/password accounts. Passwords are stored as
// bcrypt hashes.
type AccountService struct {
	dynamoClient *dynamodb.Client
	tableName    string

	// In-memory fallback
	accounts map[string]model.Account
	mu       sync.Mutex
}

// NewAccountService creates a new AccountService. A nil dynamoClient keeps
// accounts in memory.
func NewAccountService(dynamoClient *dynamodb.Client, tableName string) *AccountService {
	return &AccountService{
		dynamoClient: dynamoClient,
		tableName:    tableName,
		accounts:     make(map[string]model.Account),
	}
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Register creates an account and returns it.
func (s *AccountService) Register(ctx context.Context, username, password string) (*model.Account, error) {
	username = normalizeUsername(username)
	if len(username) < minUsernameLength || len(username) > maxUsernameLength || strings.ContainsAny(username, " \t\n") {
		return nil, ErrInvalidUsername
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return nil, ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := model.Account{
		Username:     username,
		UserID:       LocalUserPrefix + uuid.New().String(),
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if s.dynamoClient == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.accounts[username]; ok {
			return nil, ErrAccountExists
		}
		s.accounts[username] = account
		return &account, nil
	}

	item, err := attributevalue.MarshalMap(account)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal account: %w", err)
	}

	_, err = s.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(username)"),
	})
	if err != nil {
		var conflict *types.ConditionalCheckFailedException
		if errors.As(err, &conflict) {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("failed to save account to DynamoDB: %w", err)
	}

	return &account, nil
}

// Authenticate checks a username and password. Unknown users and wrong
// passwords both return ErrInvalidCredentials.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*model.Account, error) {
	account, err := s.get(ctx, normalizeUsername(username))
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

func (s *AccountService) get(ctx context.Context, username string) (*model.Account, error) {
	if s.dynamoClient == nil {
		s.mu.Lock()
		a, ok := s.accounts[username]
		s.mu.Unlock()
		if !ok {
			return nil, nil
		}
		return &a, nil
	}

	out, err := s.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"username": &types.AttributeValueMemberS{Value: username},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get account from DynamoDB: %w", err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var account model.Account
	if err := attributevalue.UnmarshalMap(out.Item, &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return &account, nil
}
