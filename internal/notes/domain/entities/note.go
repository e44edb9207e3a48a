// Package entities defines the domain entities for the notes service.
package entities

import (
	"errors"
	"time"
)

// Ограничения для полей заметки.
const (
	MaxTitleLength = 255
)

// Ошибки домена заметок.
var (
	ErrEmptyTitle   = errors.New("title cannot be empty")
	ErrTitleTooLong = errors.New("title cannot exceed 255 characters")
	ErrEmptyContent = errors.New("content cannot be empty")
)

// Note представляет собой заметку пользователя.
// Version монотонно увеличивается на единицу при каждой изменяющей мутации.
type Note struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Version   int        `json:"version"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewNote создает новую заметку с начальной версией 1.
func NewNote(userID, title, content string) *Note {
	now := time.Now()
	return &Note{
		UserID:    userID,
		Title:     title,
		Content:   content,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate проверяет инварианты заметки.
func (n *Note) Validate() error {
	if n.Title == "" {
		return ErrEmptyTitle
	}
	if len(n.Title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	if n.Content == "" {
		return ErrEmptyContent
	}
	return nil
}
