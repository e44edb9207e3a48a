package entities

import "time"

// NoteMedia представляет бинарное вложение заметки.
// Содержимое не интерпретируется сервисом.
type NoteMedia struct {
	ID        string    `json:"id"`
	NoteID    string    `json:"note_id"`
	Filename  string    `json:"filename"`
	MimeType  string    `json:"mime_type"`
	Size      int64     `json:"size"`
	Data      []byte    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
