// internal/models/document.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	BaseModel
	ApplicationID uuid.UUID    `json:"application_id" gorm:"type:uuid;not null;uniqueIndex:idx_documents_application_type"`
	DocumentType  DocumentType `json:"document_type" gorm:"type:varchar(30);not null;uniqueIndex:idx_documents_application_type"`
	FilePath      string       `json:"file_path" gorm:"size:500;not null"`
	FileURL       string       `json:"file_url" gorm:"size:1000"`
	FileSize      int64        `json:"file_size"`
	MimeType      string       `json:"mime_type" gorm:"size:100"`
	Checksum      string       `json:"checksum" gorm:"size:64"`
	Verified      bool         `json:"verified" gorm:"not null;default:false"`
	UploadedAt    time.Time    `json:"uploaded_at" gorm:"not null"`
}
