package models

import "time"

// Certificate is a completed-lecture certificate issued to a mobile-app user.
// Exported certificates have been appended to the master sheet in object
// storage; ReadyForExport flags rows still waiting for the export worker.
type Certificate struct {
	UserUID        string    `json:"user_uid"`
	CertID         string    `json:"cert_id"`
	LectureTitle   string    `json:"lecture_title"`
	PDFURL         string    `json:"pdf_url"`
	UserName       string    `json:"user_name,omitempty"`
	UserEmail      string    `json:"user_email,omitempty"`
	UserPhone      string    `json:"user_phone,omitempty"`
	IssuedAt       time.Time `json:"issued_at"`
	Exported       bool      `json:"exported"`
	ReadyForExport bool      `json:"ready_for_export"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
