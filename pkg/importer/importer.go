package importer

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"memory-beads-be/pkg/apperr"
	"memory-beads-be/pkg/bead"
)

const (
	RecordTypeStory = "STORY"

	DefaultTitle  = "Imported Memory"
	DefaultPrompt = "What else do you remember?"

	idPrefix = "daily-"
)

// Record is one entry of an exported story session. Only the fields the
// projection reads are typed; the rest are kept raw so unknown shapes never
// break parsing.
type Record struct {
	Id                string          `json:"id"`
	Type              string          `json:"type"`
	PlayerId          string          `json:"playerId"`
	Timestamp         int64           `json:"timestamp"`
	FullStory         string          `json:"fullStory"`
	StorySnippet      *string         `json:"storySnippet"`
	Keyword           *string         `json:"keyword"`
	KeywordType       string          `json:"keywordType,omitempty"`
	AudioUrl          string          `json:"audioUrl,omitempty"`
	Images            []string        `json:"images,omitempty"`
	Notes             json.RawMessage `json:"notes,omitempty"`
	Reactions         json.RawMessage `json:"reactions,omitempty"`
	LifeStage         json.RawMessage `json:"lifeStage,omitempty"`
	CharacterMentions json.RawMessage `json:"characterMentions,omitempty"`
}

// Plan is the result of grouping a record list by owner. Exactly one of
// Beads (single owner, ready to import) or Owners (needs a choice) is set.
type Plan struct {
	Owners  []string    `json:"owners,omitempty"`
	Beads   []bead.Bead `json:"beads,omitempty"`
	Stories []Record    `json:"-"`
}

func (p Plan) NeedsOwner() bool {
	return len(p.Owners) > 1
}

// Adapter turns import files into draft beads.
type Adapter struct {
	look     *bead.Appearance
	location *time.Location
}

func NewAdapter(look *bead.Appearance, location *time.Location) *Adapter {
	if look == nil {
		look = bead.NewAppearance(nil)
	}
	if location == nil {
		location = time.Local
	}
	return &Adapter{look: look, location: location}
}

// Parse decodes a JSON array of records. Any decoding problem is a user input
// error: the file came from the user.
func Parse(r io.Reader) ([]Record, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, apperr.UserInput("import file is not a valid record list").WithCause(err)
	}
	return records, nil
}

// Plan filters story records and groups them by owner. A single owner is
// projected immediately; several owners are returned for the caller to choose.
func (a *Adapter) Plan(records []Record) (Plan, error) {
	stories := filterStories(records)
	if len(stories) == 0 {
		return Plan{}, apperr.UserInput("no stories found in import file")
	}

	owners := distinctOwners(stories)
	if len(owners) > 1 {
		return Plan{Owners: owners, Stories: stories}, nil
	}
	return Plan{Owners: owners, Beads: a.project(stories), Stories: stories}, nil
}

// Choose projects the stories of one owner.
func (a *Adapter) Choose(stories []Record, owner string) ([]bead.Bead, error) {
	var picked []Record
	for _, r := range stories {
		if r.PlayerId == owner {
			picked = append(picked, r)
		}
	}
	if len(picked) == 0 {
		return nil, apperr.UserInput("no stories for player %q", owner)
	}
	return a.project(picked), nil
}

func (a *Adapter) project(records []Record) []bead.Bead {
	beads := make([]bead.Bead, 0, len(records))
	for _, r := range records {
		beads = append(beads, a.Project(r))
	}
	return beads
}

// Project maps one story record onto a draft bead.
func (a *Adapter) Project(r Record) bead.Bead {
	title := DefaultTitle
	if r.Keyword != nil {
		title = *r.Keyword
	}
	prompt := DefaultPrompt
	if r.StorySnippet != nil {
		prompt = *r.StorySnippet
	}

	b := bead.Bead{
		Id:               idPrefix + r.Id,
		Variant:          bead.DailyDraft,
		Title:            title,
		Prompt:           prompt,
		UserStory:        r.FullStory,
		Date:             bead.BeadDate(time.UnixMilli(r.Timestamp).In(a.location)),
		DominantColor:    a.look.PastelColor(),
		Shape:            a.look.Shape(),
		AudioUrl:         r.AudioUrl,
		AdditionalImages: []string{},
		EchoQuestions:    []string{},
		Echoes:           []bead.Echo{},
	}
	if len(r.Images) > 0 {
		b.ImageUrl = r.Images[0]
	}
	return b
}

func filterStories(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Type == RecordTypeStory {
			out = append(out, r)
		}
	}
	return out
}

func distinctOwners(records []Record) []string {
	seen := make(map[string]bool)
	var owners []string
	for _, r := range records {
		if !seen[r.PlayerId] {
			seen[r.PlayerId] = true
			owners = append(owners, r.PlayerId)
		}
	}
	sort.Strings(owners)
	return owners
}

// Summary is a one-line description used by logs and the inspect tool.
func (p Plan) Summary() string {
	if p.NeedsOwner() {
		return fmt.Sprintf("%d stories from %d players, choose one", len(p.Stories), len(p.Owners))
	}
	return fmt.Sprintf("%d stories ready to import", len(p.Beads))
}
