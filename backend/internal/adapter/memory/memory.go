package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/jun/letterdrive/backend/internal/adapter"
	"github.com/jun/letterdrive/backend/internal/crypto"
)

const (
	letterExt      = ".txt"
	letterMIMEType = "text/plain"
	folderMIMEType = "application/vnd.google-apps.folder"

	// DefaultTable is used when no table name is configured.
	DefaultTable = "LetterStore"
)

const (
	maxLetterSize   = 256 * 1024 // 256KB
	maxNameLength   = 255
	maxItemsPerUser = 500
)

// toMemoryName appends the letter extension for storage.
func toMemoryName(name string) string {
	if strings.HasSuffix(name, letterExt) {
		return name
	}
	return name + letterExt
}

// fromMemoryName strips the letter extension when returning names to the API.
func fromMemoryName(name string) string {
	return strings.TrimSuffix(name, letterExt)
}

// LetterItem is a letter or folder row. Content is encrypted.
type LetterItem struct {
	PK           string    `dynamodbav:"pk"`
	UserID       string    `dynamodbav:"user_id"`
	ID           string    `dynamodbav:"id"`
	Name         string    `dynamodbav:"name"`
	MIMEType     string    `dynamodbav:"mime_type"`
	ModifiedTime time.Time `dynamodbav:"modified_time"`
	Size         int64     `dynamodbav:"size"`
	Parents      []string  `dynamodbav:"parents"`
	Content      string    `dynamodbav:"content"`
}

// MemoryAdapter implements adapter.StorageAdapter for local accounts.
// If client is nil, it uses an in-memory map (for tests and local runs).
// If client is set, it uses DynamoDB.
type MemoryAdapter struct {
	client    *dynamodb.Client
	table     string
	userID    string
	encryptor crypto.Encryptor
	linkBase  string

	// Fallback when client is nil
	items map[string]LetterItem
	mu    sync.RWMutex

	folderMu sync.Mutex
	FolderID string
}

// NewMemoryAdapter creates a MemoryAdapter for userID. linkBase prefixes the
// web view link of each letter.
func NewMemoryAdapter(client *dynamodb.Client, table, userID string, encryptor crypto.Encryptor, linkBase string) *MemoryAdapter {
	if table == "" {
		table = DefaultTable
	}
	if encryptor == nil {
		encryptor = crypto.NewMockEncryptor()
	}
	return &MemoryAdapter{
		client:    client,
		table:     table,
		userID:    userID,
		encryptor: encryptor,
		linkBase:  strings.TrimRight(linkBase, "/"),
		items:     make(map[string]LetterItem),
	}
}

// WebViewLink is where the letter with id can be read.
func (m *MemoryAdapter) WebViewLink(id string) string {
	return m.linkBase + "/letters/" + id
}

func (m *MemoryAdapter) metadata(item LetterItem) adapter.FileMetadata {
	meta := adapter.FileMetadata{
		ID:           item.ID,
		Name:         item.Name,
		MIMEType:     item.MIMEType,
		ModifiedTime: item.ModifiedTime,
		Size:         item.Size,
	}
	if item.MIMEType != folderMIMEType {
		meta.Name = fromMemoryName(item.Name)
		meta.WebViewLink = m.WebViewLink(item.ID)
	}
	return meta
}

// defaultFolder is the folder used when a call names none.
func (m *MemoryAdapter) defaultFolder() string {
	m.folderMu.Lock()
	defer m.folderMu.Unlock()
	if m.FolderID == "" {
		return "root"
	}
	return m.FolderID
}

func hasParent(item LetterItem, folderID string) bool {
	for _, p := range item.Parents {
		if p == folderID {
			return true
		}
	}
	return folderID == "root" && len(item.Parents) == 0
}

// ListFiles lists the letters in a folder, newest first.
func (m *MemoryAdapter) ListFiles(ctx context.Context, folderID string) ([]adapter.FileMetadata, error) {
	target := folderID
	if target == "" {
		target = m.defaultFolder()
	}

	items, err := m.userItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list letters: %w", err)
	}

	files := []adapter.FileMetadata{}
	for _, item := range items {
		if item.MIMEType == folderMIMEType || !hasParent(item, target) {
			continue
		}
		files = append(files, m.metadata(item))
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ModifiedTime.After(files[j].ModifiedTime)
	})
	return files, nil
}

// GetFile retrieves a letter and decrypts its content.
func (m *MemoryAdapter) GetFile(ctx context.Context, fileID string) (*adapter.File, error) {
	item, err := m.getItem(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if item.UserID != m.userID {
		return nil, adapter.ErrNotFound
	}

	var content []byte
	if item.MIMEType != folderMIMEType {
		plain, err := m.encryptor.Decrypt(ctx, item.Content)
		if err != nil {
			return nil, fmt.Errorf("decrypt letter %s: %w", fileID, err)
		}
		content = []byte(plain)
	}

	return &adapter.File{FileMetadata: m.metadata(item), Content: content}, nil
}

// CreateFile stores a new encrypted letter in folderID.
func (m *MemoryAdapter) CreateFile(ctx context.Context, name string, content []byte, folderID string) (*adapter.FileMetadata, error) {
	if len(name) > maxNameLength {
		return nil, fmt.Errorf("name too long (max %d characters): %w", maxNameLength, adapter.ErrLimitExceeded)
	}
	if len(content) > maxLetterSize {
		return nil, fmt.Errorf("content too large (max %d bytes): %w", maxLetterSize, adapter.ErrLimitExceeded)
	}

	count, err := m.countUserLetters(ctx)
	if err != nil {
		return nil, fmt.Errorf("count letters: %w", err)
	}
	if count >= maxItemsPerUser {
		return nil, fmt.Errorf("item limit reached (max %d items): %w", maxItemsPerUser, adapter.ErrLimitExceeded)
	}

	target := folderID
	if target == "" {
		target = m.defaultFolder()
	}

	encrypted, err := m.encryptor.Encrypt(ctx, string(content))
	if err != nil {
		return nil, fmt.Errorf("encrypt letter: %w", err)
	}

	id := uuid.New().String()
	item := LetterItem{
		PK:           id,
		UserID:       m.userID,
		ID:           id,
		Name:         toMemoryName(name),
		MIMEType:     letterMIMEType,
		ModifiedTime: time.Now().UTC(),
		Size:         int64(len(content)),
		Parents:      []string{target},
		Content:      encrypted,
	}
	if err := m.putItem(ctx, item); err != nil {
		return nil, fmt.Errorf("save letter: %w", err)
	}

	meta := m.metadata(item)
	return &meta, nil
}

// EnsureRootFolder returns the ID of the user's top-level folder called name,
// creating it if needed.
func (m *MemoryAdapter) EnsureRootFolder(ctx context.Context, name string) (string, error) {
	m.folderMu.Lock()
	defer m.folderMu.Unlock()
	if m.FolderID != "" {
		return m.FolderID, nil
	}

	items, err := m.userItems(ctx)
	if err != nil {
		return "", fmt.Errorf("search root folder: %w", err)
	}
	for _, item := range items {
		if item.MIMEType == folderMIMEType && item.Name == name && hasParent(item, "root") {
			m.FolderID = item.ID
			return item.ID, nil
		}
	}

	id := uuid.New().String()
	folder := LetterItem{
		PK:           id,
		UserID:       m.userID,
		ID:           id,
		Name:         name,
		MIMEType:     folderMIMEType,
		ModifiedTime: time.Now().UTC(),
	}
	if err := m.putItem(ctx, folder); err != nil {
		return "", fmt.Errorf("create root folder: %w", err)
	}
	m.FolderID = id
	return id, nil
}

// countUserLetters counts the user's letters across every scan page.
// Folder rows do not count toward the quota.
func (m *MemoryAdapter) countUserLetters(ctx context.Context) (int, error) {
	items, err := m.userItems(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, item := range items {
		if item.MIMEType != folderMIMEType {
			n++
		}
	}
	return n, nil
}

// userItems returns every row owned by the user.
func (m *MemoryAdapter) userItems(ctx context.Context) ([]LetterItem, error) {
	if m.client == nil {
		m.mu.RLock()
		defer m.mu.RUnlock()
		var out []LetterItem
		for _, item := range m.items {
			if item.UserID == m.userID {
				out = append(out, item)
			}
		}
		return out, nil
	}

	var items []LetterItem
	paginator := dynamodb.NewScanPaginator(m.client, &dynamodb.ScanInput{
		TableName:        aws.String(m.table),
		FilterExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: m.userID},
		},
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []LetterItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		items = append(items, batch...)
	}
	return items, nil
}

func (m *MemoryAdapter) getItem(ctx context.Context, id string) (LetterItem, error) {
	if m.client == nil {
		m.mu.RLock()
		defer m.mu.RUnlock()
		item, ok := m.items[id]
		if !ok {
			return LetterItem{}, adapter.ErrNotFound
		}
		return item, nil
	}

	out, err := m.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(m.table),
		Key: map[string]types.AttributeValue{
			"pk": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return LetterItem{}, err
	}
	if out.Item == nil {
		return LetterItem{}, adapter.ErrNotFound
	}

	var item LetterItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return LetterItem{}, err
	}
	return item, nil
}

func (m *MemoryAdapter) putItem(ctx context.Context, item LetterItem) error {
	if m.client == nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.items[item.ID] = item
		return nil
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return err
	}
	_, err = m.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(m.table),
		Item:      av,
	})
	return err
}

// Provider implements adapter.StorageProvider backed by DynamoDB (or memory if client is nil).
type Provider struct {
	client    *dynamodb.Client
	table     string
	encryptor crypto.Encryptor
	linkBase  string
	stores    map[string]*MemoryAdapter
	mu        sync.Mutex
}

// NewProvider creates a Provider. Adapters are created on first use and kept per user.
func NewProvider(client *dynamodb.Client, table string, encryptor crypto.Encryptor, linkBase string) *Provider {
	return &Provider{
		client:    client,
		table:     table,
		encryptor: encryptor,
		linkBase:  linkBase,
		stores:    make(map[string]*MemoryAdapter),
	}
}

// GetAdapter returns the adapter for userID.
func (p *Provider) GetAdapter(ctx context.Context, userID string) (adapter.StorageAdapter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.stores[userID]; !ok {
		p.stores[userID] = NewMemoryAdapter(p.client, p.table, userID, p.encryptor, p.linkBase)
	}
	return p.stores[userID], nil
}
