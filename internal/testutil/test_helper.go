package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/noteduco342/OMMessenger-sync/internal/models"
)

// TestHelper provides utility functions for tests
type TestHelper struct {
	t *testing.T
}

func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// CreateDirectMessage creates a direct message with default values
func (h *TestHelper) CreateDirectMessage(id uint, senderID, recipientID uint, content string) *models.Message {
	if id == 0 {
		id = 1
	}
	if senderID == 0 {
		senderID = 1
	}
	if recipientID == 0 {
		recipientID = 2
	}
	if content == "" {
		content = "Test message"
	}

	recipient := recipientID
	return &models.Message{
		ID:              id,
		ClientID:        fmt.Sprintf("client-%d", id),
		SenderID:        senderID,
		RecipientID:     &recipient,
		Content:         content,
		MessageType:     models.TextMessage,
		Status:          models.StatusSent,
		TimestampMillis: time.Now().UnixMilli(),
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
}

// CreateGroupMessage creates a group message with default values
func (h *TestHelper) CreateGroupMessage(id uint, senderID, groupID uint, content string) *models.Message {
	if id == 0 {
		id = 1
	}
	if senderID == 0 {
		senderID = 1
	}
	if groupID == 0 {
		groupID = 1
	}
	if content == "" {
		content = "Test group message"
	}

	gid := groupID
	return &models.Message{
		ID:              id,
		ClientID:        fmt.Sprintf("client-%d", id),
		SenderID:        senderID,
		GroupID:         &gid,
		Content:         content,
		MessageType:     models.TextMessage,
		Status:          models.StatusSent,
		TimestampMillis: time.Now().UnixMilli(),
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
}

// CreateConversation creates a conversation row with default values
func (h *TestHelper) CreateConversation(kind models.ConvKind, targetID uint, name string) models.Conversation {
	if targetID == 0 {
		targetID = 1
	}
	if name == "" {
		name = "Test Conversation"
	}

	return models.Conversation{
		Kind:               kind,
		TargetID:           targetID,
		Name:               name,
		LastActivityMillis: time.Now().UnixMilli(),
	}
}

// AssertError checks if an error occurred when it should (or shouldn't)
func (h *TestHelper) AssertError(err error, shouldErr bool, testName string) {
	if (err != nil) != shouldErr {
		if shouldErr {
			h.t.Errorf("%s: expected error but got nil", testName)
		} else {
			h.t.Errorf("%s: unexpected error: %v", testName, err)
		}
	}
}

// AssertEqual checks if two values are equal
func (h *TestHelper) AssertEqual(got, want interface{}, testName string) {
	if got != want {
		h.t.Errorf("%s: got %v, want %v", testName, got, want)
	}
}

// AssertNotNil checks if a value is not nil
func (h *TestHelper) AssertNotNil(value interface{}, testName string) {
	if value == nil {
		h.t.Errorf("%s: expected non-nil value", testName)
	}
}

// GetRecordNotFoundError returns an error that mimics gorm.ErrRecordNotFound
func GetRecordNotFoundError() error {
	return gorm.ErrRecordNotFound
}
