package domain

// Upload is one row of the backend's resume listing
type Upload struct {
	ID        int64  `json:"id"`
	Filename  string `json:"filename"`
	CreatedAt string `json:"created_at"`
}

// UploadEvent is pushed by the backend after a resume was stored
type UploadEvent struct {
	ResumeID      int64  `json:"resume_id,omitempty"`
	Filename      string `json:"filename,omitempty"`
	SavedFilename string `json:"saved_filename,omitempty"`
}

// EventTypeResumeUploaded is the stream event type for new uploads
const EventTypeResumeUploaded = "resume_uploaded"
