package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noteduco342/OMMessenger-sync/internal/models"
)

type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(db *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Upsert(conv models.Conversation) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kind"}, {Name: "target_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "last_activity_millis", "pinned", "updated_at"}),
	}).Create(&conv).Error
}

func (r *ConversationRepository) FindAll() ([]models.Conversation, error) {
	var convs []models.Conversation
	err := r.db.Order("last_activity_millis DESC").Find(&convs).Error
	return convs, err
}

func (r *ConversationRepository) SetPinned(key models.ConvKey, pinned bool) error {
	return r.db.Model(&models.Conversation{}).
		Where("kind = ? AND target_id = ?", key.Kind, key.ID).
		Update("pinned", pinned).Error
}
