package repository

import (
	"github.com/noteduco342/OMMessenger-sync/internal/models"
)

// MessageRepositoryInterface defines the contract for message persistence
type MessageRepositoryInterface interface {
	Save(message *models.Message) error
	FindByID(id uint) (*models.Message, error)
	FindConversation(key models.ConvKey, selfID uint, limit int) ([]models.Message, error)
	FindPinned(key models.ConvKey, selfID uint) ([]models.Message, error)
	DeleteConversation(key models.ConvKey, selfID uint) error
}

// ConversationRepositoryInterface defines the contract for conversation rows
type ConversationRepositoryInterface interface {
	Upsert(conv models.Conversation) error
	FindAll() ([]models.Conversation, error)
	SetPinned(key models.ConvKey, pinned bool) error
}
