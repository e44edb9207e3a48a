package entities

import (
	"errors"
	"time"
)

// Permission определяет уровень доступа к заметке.
type Permission string

// Уровни доступа. OWNER не хранится в таблице note_shares,
// а выводится из владения заметкой.
const (
	PermissionOwner Permission = "OWNER"
	PermissionEdit  Permission = "EDIT"
	PermissionRead  Permission = "READ"
)

// ErrInvalidPermission возвращается при попытке выдать неизвестный уровень доступа.
var ErrInvalidPermission = errors.New("permission must be READ or EDIT")

// CanEdit сообщает, разрешает ли уровень доступа изменение содержимого.
func (p Permission) CanEdit() bool {
	return p == PermissionOwner || p == PermissionEdit
}

// ValidateGrant проверяет, что уровень доступа допустим для выдачи.
func (p Permission) ValidateGrant() error {
	if p != PermissionRead && p != PermissionEdit {
		return ErrInvalidPermission
	}
	return nil
}

// NoteShare представляет выданное право доступа к заметке.
// Пара (note_id, user_id) уникальна; повторная выдача обновляет уровень.
type NoteShare struct {
	ID         string     `json:"id"`
	NoteID     string     `json:"note_id"`
	UserID     string     `json:"user_id"`
	Permission Permission `json:"permission"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
