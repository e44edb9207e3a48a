package entities

import "time"

// NoteVersion представляет неизменяемый снимок заметки в журнале версий.
// Записи журнала никогда не изменяются и не удаляются после вставки.
type NoteVersion struct {
	ID            string    `json:"id"`
	NoteID        string    `json:"note_id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	VersionNumber int       `json:"version_number"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}
