package services

import (
	"context"
	"strings"

	"github.com/branchbook/branchbook-api/models"
	"gorm.io/gorm"
)

type TodoService struct {
	db *gorm.DB
}

func NewTodoService(db *gorm.DB) *TodoService {
	return &TodoService{db: db}
}

func (s *TodoService) List(ctx context.Context, userID uint) ([]models.Todo, error) {
	todos := []models.Todo{}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id asc").Find(&todos).Error; err != nil {
		return nil, storeFailure(err)
	}
	return todos, nil
}

func (s *TodoService) Create(ctx context.Context, userID uint, content string) (*models.Todo, error) {
	if strings.TrimSpace(content) == "" {
		return nil, validation("Content required")
	}

	todo := models.Todo{UserID: userID, Content: content}
	if err := s.db.WithContext(ctx).Create(&todo).Error; err != nil {
		return nil, storeFailure(err)
	}
	return &todo, nil
}

func (s *TodoService) SetCompleted(ctx context.Context, userID, id uint, completed bool) error {
	res := s.db.WithContext(ctx).Model(&models.Todo{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("completed", completed)
	if res.Error != nil {
		return storeFailure(res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("Todo not found")
	}
	return nil
}

func (s *TodoService) Delete(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Todo{})
	if res.Error != nil {
		return storeFailure(res.Error)
	}
	if res.RowsAffected == 0 {
		return notFound("Todo not found")
	}
	return nil
}
