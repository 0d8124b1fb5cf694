package dto

type StartRecordingRequest struct {
	MimeTypes []string `json:"mimeTypes"`
}

type StartRecordingResponse struct {
	MimeType string `json:"mimeType"`
}

type StopRecordingRequest struct {
	MimeType string `json:"mimeType"`
}

type RecordingResponse struct {
	AudioUrl string `json:"audioUrl"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}
