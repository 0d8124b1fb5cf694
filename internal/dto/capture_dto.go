package dto

type AnalyzeImageResponse struct {
	ImageUrl string `json:"imageUrl"`
	Title    string `json:"title"`
	Prompt   string `json:"prompt"`
	Color    string `json:"color"`
	Fallback bool   `json:"fallback"`
}

type CaptureRequest struct {
	ImageUrl string `json:"imageUrl" validate:"required"`
	Title    string `json:"title" validate:"required,max=120"`
	Prompt   string `json:"prompt" validate:"required,max=500"`
	Color    string `json:"color" validate:"omitempty,hexcolor"`
	Story    string `json:"story" validate:"max=20000"`
}
