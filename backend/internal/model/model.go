package model

import "time"

// UserToken is a Google user's OAuth2 refresh token as stored in DynamoDB.
type UserToken struct {
	UserID                string    `json:"user_id" dynamodbav:"user_id"`
	Email                 string    `json:"email" dynamodbav:"email"`
	Name                  string    `json:"name" dynamodbav:"name"`
	EncryptedRefreshToken string    `json:"encrypted_refresh_token" dynamodbav:"encrypted_refresh_token"`
	LettersFolderID       string    `json:"letters_folder_id" dynamodbav:"letters_folder_id"`
	UpdatedAt             time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

// Account is a username/password account.
type Account struct {
	Username     string    `json:"username" dynamodbav:"username"`
	UserID       string    `json:"user_id" dynamodbav:"user_id"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at"`
}

// User is the profile returned by the auth endpoints.
type User struct {
	ID         string `json:"id"`
	Email      string `json:"email,omitempty"`
	Name       string `json:"name,omitempty"`
	GoogleAuth bool   `json:"googleAuth"`
}

// Letter is one entry of a letter listing.
type Letter struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	WebViewLink  string    `json:"webViewLink"`
	ModifiedTime time.Time `json:"modifiedTime"`
}

// LetterList is the body of the listing endpoints.
type LetterList struct {
	Files []Letter `json:"files"`
}
