package bead

import (
	"fmt"
	"strings"
)

// Kind is the provenance tag of a bead.
type Kind string

const (
	KindDaily   Kind = "daily"
	KindScanned Kind = "scanned"
)

// Variant is the lifecycle discriminator. Provenance and draft status only
// combine in these three ways; a scanned draft does not exist.
type Variant int

const (
	VariantUnknown Variant = iota
	DailyDraft
	DailyFinalized
	ScannedFinalized
)

var variantNames = map[Variant]string{
	DailyDraft:       "daily_draft",
	DailyFinalized:   "daily_finalized",
	ScannedFinalized: "scanned_finalized",
}

func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return "unknown"
}

func (v Variant) Kind() Kind {
	if v == ScannedFinalized {
		return KindScanned
	}
	return KindDaily
}

func (v Variant) IsDraft() bool {
	return v == DailyDraft
}

func (v Variant) MarshalText() ([]byte, error) {
	if _, ok := variantNames[v]; !ok {
		return nil, fmt.Errorf("bead: cannot marshal variant %d", int(v))
	}
	return []byte(v.String()), nil
}

func (v *Variant) UnmarshalText(text []byte) error {
	for variant, name := range variantNames {
		if name == string(text) {
			*v = variant
			return nil
		}
	}
	return fmt.Errorf("bead: unknown variant %q", string(text))
}

// Echo is an immutable annotation appended to a finalized bead.
type Echo struct {
	Id       string   `json:"id"`
	Date     string   `json:"date"`
	Text     string   `json:"text"`
	Images   []string `json:"images"`
	AudioUrl string   `json:"audioUrl,omitempty"`
}

// Bead is a single captured or imported memory.
type Bead struct {
	Id               string   `json:"id"`
	Variant          Variant  `json:"variant"`
	Title            string   `json:"title"`
	Prompt           string   `json:"prompt"`
	UserStory        string   `json:"userStory,omitempty"`
	Date             string   `json:"date"`
	DominantColor    string   `json:"dominantColor"`
	Shape            Shape    `json:"shape"`
	AudioUrl         string   `json:"audioUrl,omitempty"`
	ImageUrl         string   `json:"imageUrl,omitempty"`
	AdditionalImages []string `json:"additionalImages"`
	EchoQuestions    []string `json:"echoQuestions"`
	Echoes           []Echo   `json:"echoes"`
}

func (b Bead) Kind() Kind {
	return b.Variant.Kind()
}

func (b Bead) IsDraft() bool {
	return b.Variant.IsDraft()
}

// Validate reports combinations the lifecycle never produces.
func (b Bead) Validate() error {
	if strings.TrimSpace(b.Id) == "" {
		return fmt.Errorf("bead: empty id")
	}
	if _, ok := variantNames[b.Variant]; !ok {
		return fmt.Errorf("bead %s: unknown variant", b.Id)
	}
	if b.IsDraft() && len(b.Echoes) > 0 {
		return fmt.Errorf("bead %s: draft carries %d echoes", b.Id, len(b.Echoes))
	}
	return nil
}

// Clone returns a deep copy.
func (b Bead) Clone() Bead {
	c := b
	c.AdditionalImages = cloneStrings(b.AdditionalImages)
	c.EchoQuestions = cloneStrings(b.EchoQuestions)
	if b.Echoes != nil {
		c.Echoes = make([]Echo, len(b.Echoes))
		for i, e := range b.Echoes {
			e.Images = cloneStrings(e.Images)
			c.Echoes[i] = e
		}
	}
	return c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
