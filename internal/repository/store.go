package repository

import (
	"gorm.io/gorm"

	"github.com/noteduco342/OMMessenger-sync/internal/models"
)

// Store bundles the repositories behind the engine's persistence contract.
type Store struct {
	Messages      MessageRepositoryInterface
	Conversations ConversationRepositoryInterface
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		Messages:      NewMessageRepository(db),
		Conversations: NewConversationRepository(db),
	}
}

func (s *Store) SaveMessage(msg *models.Message) error {
	return s.Messages.Save(msg)
}

func (s *Store) SaveConversation(conv models.Conversation) error {
	return s.Conversations.Upsert(conv)
}
