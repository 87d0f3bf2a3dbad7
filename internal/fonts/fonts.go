// Package fonts loads the banner typefaces and measures text with them.
package fonts

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
)

type Weight int

const (
	Regular Weight = iota
	Medium
	SemiBold
)

func (w Weight) String() string {
	switch w {
	case Medium:
		return "medium"
	case SemiBold:
		return "semibold"
	default:
		return "regular"
	}
}

// Style is a font weight and size in canvas units with its line height.
type Style struct {
	Weight     Weight  `json:"weight"`
	Size       float64 `json:"size"`
	LineHeight float64 `json:"lineHeight"`
}

// Paths points at TrueType files; empty entries use the bundled Go fonts.
type Paths struct {
	Regular  string
	Medium   string
	SemiBold string
}

type faceKey struct {
	weight Weight
	size   float64
}

// Set holds parsed fonts and a cache of measuring faces. It is safe for
// concurrent use.
type Set struct {
	fonts map[Weight]*truetype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

// Bundled returns a Set backed by the Go fonts.
func Bundled() *Set {
	s, err := Load(Paths{})
	if err != nil {
		panic(fmt.Sprintf("bundled fonts: %v", err))
	}
	return s
}

func Load(paths Paths) (*Set, error) {
	s := &Set{
		fonts: make(map[Weight]*truetype.Font, 3),
		faces: make(map[faceKey]font.Face),
	}
	sources := []struct {
		weight  Weight
		path    string
		builtin []byte
	}{
		{Regular, paths.Regular, goregular.TTF},
		{Medium, paths.Medium, gomedium.TTF},
		{SemiBold, paths.SemiBold, gobold.TTF},
	}
	for _, src := range sources {
		data := src.builtin
		if src.path != "" {
			b, err := os.ReadFile(src.path)
			if err != nil {
				return nil, fmt.Errorf("read %s font: %w", src.weight, err)
			}
			data = b
		}
		f, err := truetype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s font: %w", src.weight, err)
		}
		s.fonts[src.weight] = f
	}
	return s, nil
}

// Face returns a new face for st. Faces are not safe for concurrent use, so
// every rasterizer gets its own.
func (s *Set) Face(st Style) font.Face {
	return truetype.NewFace(s.fonts[st.Weight], &truetype.Options{
		Size:    st.Size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Width measures text set in st.
func (s *Set) Width(st Style, text string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.widthLocked(st, text)
}

func (s *Set) widthLocked(st Style, text string) float64 {
	if text == "" {
		return 0
	}
	key := faceKey{st.Weight, st.Size}
	face, ok := s.faces[key]
	if !ok {
		face = s.Face(st)
		s.faces[key] = face
	}
	return float64(font.MeasureString(face, text)) / 64
}

// Wrap breaks text into lines no wider than maxWidth. Explicit newlines
// start a new line; words longer than a line are broken between runes.
func (s *Set) Wrap(st Style, text string, maxWidth float64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			lines = append(lines, "")
			continue
		}
		if maxWidth <= 0 || s.widthLocked(st, para) <= maxWidth {
			lines = append(lines, para)
			continue
		}
		lines = append(lines, s.wrapWords(st, strings.Fields(para), maxWidth)...)
	}
	return lines
}

func (s *Set) wrapWords(st Style, words []string, maxWidth float64) []string {
	var out []string
	var current string
	for _, w := range words {
		if s.widthLocked(st, w) > maxWidth {
			if current != "" {
				out = append(out, current)
				current = ""
			}
			out = append(out, s.breakLongToken(st, w, maxWidth)...)
			continue
		}
		candidate := w
		if current != "" {
			candidate = current + " " + w
		}
		if current != "" && s.widthLocked(st, candidate) > maxWidth {
			out = append(out, current)
			current = w
			continue
		}
		current = candidate
	}
	if current != "" {
		out = append(out, current)
	}
	return out
}

func (s *Set) breakLongToken(st Style, token string, maxWidth float64) []string {
	var parts []string
	var current strings.Builder
	var width float64
	for _, r := range token {
		ch := string(r)
		cw := s.widthLocked(st, ch)
		if width+cw > maxWidth && current.Len() > 0 {
			parts = append(parts, current.String())
			current.Reset()
			width = 0
		}
		current.WriteString(ch)
		width += cw
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}
