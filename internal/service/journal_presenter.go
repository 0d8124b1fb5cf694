package service

import (
	"memory-beads-be/internal/dto"
	"memory-beads-be/internal/entity"
	"memory-beads-be/pkg/bead"
	"memory-beads-be/pkg/echo"
)

func toBeadResponse(b *bead.Bead) *dto.BeadResponse {
	if b == nil {
		return nil
	}
	res := &dto.BeadResponse{
		Id:               b.Id,
		Type:             b.Kind(),
		IsDraft:          b.IsDraft(),
		Title:            b.Title,
		Prompt:           b.Prompt,
		UserStory:        b.UserStory,
		Date:             b.Date,
		DominantColor:    b.DominantColor,
		Shape:            b.Shape.String(),
		AudioUrl:         b.AudioUrl,
		ImageUrl:         b.ImageUrl,
		AdditionalImages: b.AdditionalImages,
		EchoQuestions:    b.EchoQuestions,
		Echoes:           b.Echoes,
	}
	if res.AdditionalImages == nil {
		res.AdditionalImages = []string{}
	}
	if res.EchoQuestions == nil {
		res.EchoQuestions = []string{}
	}
	if res.Echoes == nil {
		res.Echoes = []bead.Echo{}
	}
	return res
}

func toBeadResponses(beads []bead.Bead) []*dto.BeadResponse {
	out := make([]*dto.BeadResponse, len(beads))
	for i := range beads {
		out[i] = toBeadResponse(&beads[i])
	}
	return out
}

// toJournalResponse renders a journal with its resolved beads. frame is the
// live echo frame when a scheduler runs for the user; it is ignored when it
// belongs to another bead.
func toJournalResponse(j *entity.Journal, frame *echo.Frame) *dto.JournalResponse {
	resolution := bead.Resolve(j.View, j.State)

	if frame != nil && (resolution.Rotating == nil || frame.BeadId != resolution.Rotating.Id) {
		frame = nil
	}
	if frame == nil {
		if f, ok := echo.FrameFor(resolution.Rotating, j.View.QuestionIndex); ok {
			frame = &f
		}
	}
	view := dto.ViewResponse{
		Tab:           j.View.Tab,
		SelectedId:    j.View.SelectedId,
		QuestionIndex: j.View.QuestionIndex,
		Editing:       j.View.Editing,
	}
	if frame != nil {
		view.QuestionIndex = frame.Index
	}

	res := &dto.JournalResponse{
		Collection:  toBeadResponses(j.State.Collection),
		Queue:       toBeadResponses(j.State.Queue),
		Fallback:    toBeadResponse(&j.State.Fallback),
		View:        view,
		Rotating:    toBeadResponse(resolution.Rotating),
		ActiveModal: toBeadResponse(resolution.ActiveModal),
		QueueEmpty:  resolution.QueueEmpty,
		Echo:        frame,
		Version:     j.Version,
	}
	if !j.UpdatedAt.IsZero() {
		t := j.UpdatedAt
		res.UpdatedAt = &t
	}
	return res
}

func toTransitionResponse(out bead.Outcome, journal *dto.JournalResponse) *dto.TransitionResponse {
	return &dto.TransitionResponse{
		Transition: out.Transition,
		Applied:    out.Applied,
		Slot:       out.Slot,
		Bead:       toBeadResponse(out.Bead),
		Echo:       out.Echo,
		Journal:    journal,
	}
}
