package bead

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Shape is an eight-value elliptical corner descriptor, rendered client side
// as a CSS border-radius ("a% b% c% d% / e% f% g% h%").
type Shape [8]int

// CircleShape is the untouched blob used by the seed fallback bead.
var CircleShape = Shape{50, 50, 50, 50, 50, 50, 50, 50}

func (s Shape) String() string {
	parts := make([]string, 0, 9)
	for i, v := range s {
		if i == 4 {
			parts = append(parts, "/")
		}
		parts = append(parts, strconv.Itoa(v)+"%")
	}
	return strings.Join(parts, " ")
}

func (s Shape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Shape) UnmarshalText(text []byte) error {
	fields := strings.Fields(strings.ReplaceAll(string(text), "/", " "))
	if len(fields) != len(s) {
		return fmt.Errorf("bead: shape %q needs %d values", string(text), len(s))
	}
	var out Shape
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSuffix(f, "%"))
		if err != nil {
			return fmt.Errorf("bead: shape value %q: %w", f, err)
		}
		out[i] = v
	}
	*s = out
	return nil
}

// Random is the subset of *rand.Rand used for appearance generation.
type Random interface {
	IntN(n int) int
}

type globalRandom struct{}

func (globalRandom) IntN(n int) int { return rand.IntN(n) }

const (
	shapeBandLow   = 40
	shapeBandWidth = 20

	pastelSaturation = 0.6
	pastelLightness  = 0.8
)

// Appearance generates ids, blob shapes and pastel colours for new beads.
type Appearance struct {
	rnd   Random
	newId func() string
}

func NewAppearance(rnd Random) *Appearance {
	if rnd == nil {
		rnd = globalRandom{}
	}
	return &Appearance{rnd: rnd, newId: uuid.NewString}
}

func (a *Appearance) NewId() string {
	return a.newId()
}

// Shape draws each corner independently from [40,60). The opposing corner of
// a pair mirrors around 100 so the blob stays bounded.
func (a *Appearance) Shape() Shape {
	for {
		r := func() int { return shapeBandLow + a.rnd.IntN(shapeBandWidth) }
		s := Shape{r(), 100 - r(), r(), 100 - r(), r(), r(), 100 - r(), 100 - r()}
		if s != CircleShape {
			return s
		}
	}
}

// PastelColor returns a random-hue colour at fixed saturation and lightness.
func (a *Appearance) PastelColor() string {
	return hslToHex(float64(a.rnd.IntN(360)), pastelSaturation, pastelLightness)
}

func hslToHex(h, s, l float64) string {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	channel := func(v float64) int { return int(math.Round((v + m) * 255)) }
	return fmt.Sprintf("#%02x%02x%02x", channel(r), channel(g), channel(b))
}

// BeadDate is the short display date used on beads ("Jun 15").
func BeadDate(t time.Time) string {
	return t.Format("Jan 2")
}

// EchoDate is the display date stamped on echoes ("Jun 15, 2024").
func EchoDate(t time.Time) string {
	return t.Format("Jan 2, 2006")
}
