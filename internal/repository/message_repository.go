package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noteduco342/OMMessenger-sync/internal/models"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Save upserts by server id, so replays of the same event are harmless.
func (r *MessageRepository) Save(message *models.Message) error {
	if message.ID == 0 {
		return r.db.Create(message).Error
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(message).Error
}

func (r *MessageRepository) FindByID(id uint) (*models.Message, error) {
	var message models.Message
	err := r.db.First(&message, id).Error
	return &message, err
}

func (r *MessageRepository) FindConversation(key models.ConvKey, selfID uint, limit int) ([]models.Message, error) {
	var messages []models.Message
	err := conversationScope(r.db, key, selfID).
		Order("timestamp_millis DESC").
		Limit(limit).
		Find(&messages).Error

	// Reverse to get chronological order
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, err
}

func (r *MessageRepository) FindPinned(key models.ConvKey, selfID uint) ([]models.Message, error) {
	var messages []models.Message
	err := conversationScope(r.db, key, selfID).
		Where("pinned = ?", true).
		Order("timestamp_millis ASC").
		Find(&messages).Error
	return messages, err
}

func (r *MessageRepository) DeleteConversation(key models.ConvKey, selfID uint) error {
	return conversationScope(r.db, key, selfID).Delete(&models.Message{}).Error
}

func conversationScope(db *gorm.DB, key models.ConvKey, selfID uint) *gorm.DB {
	if key.Kind == models.KindGroup {
		return db.Where("group_id = ?", key.ID)
	}
	return db.Where("group_id IS NULL AND ((sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?))",
		selfID, key.ID, key.ID, selfID)
}
