package pipeline

import "github.com/poiesic/distill/core"

// VideoPayload is the job body on the video queue.
type VideoPayload struct {
	DocumentID core.ID `json:"documentId"`
	UserID     string  `json:"userId"`
	VideoURL   string  `json:"videoUrl"`
	Platform   string  `json:"platform"`
	VideoID    string  `json:"videoId"`
}

// PDFPayload is the job body on the pdf queue.
type PDFPayload struct {
	DocumentID core.ID `json:"documentId"`
	UserID     string  `json:"userId"`
	FilePath   string  `json:"filePath"`
}

// KnowledgePayload is the job body on the knowledge queue.
type KnowledgePayload struct {
	DocumentID core.ID `json:"documentId"`
	UserID     string  `json:"userId"`
}
