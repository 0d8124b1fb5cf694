package dto

import (
	"time"

	"memory-beads-be/pkg/bead"
	"memory-beads-be/pkg/echo"
)

// BeadResponse is the wire shape the client renders. Type and IsDraft are
// derived from the bead variant.
type BeadResponse struct {
	Id               string      `json:"id"`
	Type             bead.Kind   `json:"type"`
	IsDraft          bool        `json:"isDraft"`
	Title            string      `json:"title"`
	Prompt           string      `json:"prompt"`
	UserStory        string      `json:"userStory,omitempty"`
	Date             string      `json:"date"`
	DominantColor    string      `json:"dominantColor"`
	Shape            string      `json:"shape"`
	AudioUrl         string      `json:"audioUrl,omitempty"`
	ImageUrl         string      `json:"imageUrl,omitempty"`
	AdditionalImages []string    `json:"additionalImages"`
	EchoQuestions    []string    `json:"echoQuestions"`
	Echoes           []bead.Echo `json:"echoes"`
}

type ViewResponse struct {
	Tab           bead.Tab `json:"tab"`
	SelectedId    *string  `json:"selectedId"`
	QuestionIndex int      `json:"questionIndex"`
	Editing       bool     `json:"editing"`
}

type JournalResponse struct {
	Collection  []*BeadResponse `json:"collection"`
	Queue       []*BeadResponse `json:"queue"`
	Fallback    *BeadResponse   `json:"fallback"`
	View        ViewResponse    `json:"view"`
	Rotating    *BeadResponse   `json:"rotating"`
	ActiveModal *BeadResponse   `json:"activeModal"`
	QueueEmpty  bool            `json:"queueEmpty"`
	Echo        *echo.Frame     `json:"echo"`
	Version     int64           `json:"version"`
	UpdatedAt   *time.Time      `json:"updatedAt,omitempty"`
}

type TransitionResponse struct {
	Transition bead.Transition  `json:"transition"`
	Applied    bool             `json:"applied"`
	Slot       bead.Slot        `json:"slot,omitempty"`
	Bead       *BeadResponse    `json:"bead,omitempty"`
	Echo       *bead.Echo       `json:"echo,omitempty"`
	Journal    *JournalResponse `json:"journal"`
}

type SetTabRequest struct {
	Tab string `json:"tab" validate:"required,oneof=collection echo create"`
}

// SelectBeadRequest clears the selection when BeadId is null. Tab, when set,
// switches tab in the same step.
type SelectBeadRequest struct {
	BeadId *string `json:"beadId"`
	Tab    string  `json:"tab" validate:"omitempty,oneof=collection echo create"`
}

type SetEditingRequest struct {
	Editing *bool `json:"editing" validate:"required"`
}

type EditBeadRequest struct {
	Title    string   `json:"title" validate:"required,max=120"`
	Text     string   `json:"text" validate:"max=20000"`
	Images   []string `json:"images" validate:"max=20,dive,required"`
	AudioUrl string   `json:"audioUrl"`
}

type ReflectRequest struct {
	Title    string   `json:"title" validate:"max=120"`
	Text     string   `json:"text" validate:"max=20000"`
	Images   []string `json:"images" validate:"max=20,dive,required"`
	AudioUrl string   `json:"audioUrl"`
}
