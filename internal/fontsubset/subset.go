// Package fontsubset reduces TrueType and OpenType fonts to the glyphs a
// document actually uses, and manages the font family embedded into the
// rendered output.
package fontsubset

import (
	"bytes"
	"errors"
	"fmt"
	"unicode"

	"github.com/h2non/filetype"
	"seehuhn.de/go/sfnt"
	"seehuhn.de/go/sfnt/cmap"
	"seehuhn.de/go/sfnt/glyf"
	"seehuhn.de/go/sfnt/glyph"
)

// Sentinel errors.
var (
	ErrNotAFont     = errors.New("data is not a TrueType or OpenType font")
	ErrParse        = errors.New("unable to parse font")
	ErrMissingGlyph = errors.New("font lacks a mandatory glyph")
	ErrNoRegular    = errors.New("font family has no regular face")
)

// mandatory runes are kept in every subset: the euro sign and the en dash
// used as list marker.
var mandatory = []rune{'€', '–'}

// Subset returns font reduced to glyph 0, the mandatory glyphs and every
// glyph needed for reference. Characters the font cannot display are left
// to the renderer's fallback.
func Subset(font []byte, reference string) ([]byte, error) {
	if !filetype.Is(font, "ttf") && !filetype.Is(font, "otf") {
		return nil, ErrNotAFont
	}

	f, err := sfnt.Read(bytes.NewReader(font))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	best, err := f.CMapTable.GetBest()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	s := newSelection()
	for _, r := range mandatory {
		gid := best.Lookup(r)
		if gid == 0 {
			return nil, fmt.Errorf("%w: %q (U+%04X)", ErrMissingGlyph, r, r)
		}
		s.add(r, gid)
	}
	for _, r := range reference {
		if r > 0xFFFF || unicode.IsControl(r) {
			continue
		}
		if gid := best.Lookup(r); gid != 0 {
			s.add(r, gid)
		}
	}

	if outlines, ok := f.Outlines.(*glyf.Outlines); ok {
		s.addComponents(outlines)
	}

	f.CMapTable = nil
	f.Gdef = nil
	f.Gsub = nil
	f.Gpos = nil
	sub := f.Subset(s.gids)
	sub.CMapTable = cmap.Table{
		{PlatformID: 3, EncodingID: 1}: s.codes.Encode(0),
	}

	var buf bytes.Buffer
	if _, err := sub.Write(&buf); err != nil {
		return nil, fmt.Errorf("%w: writing subset: %v", ErrParse, err)
	}
	return buf.Bytes(), nil
}

// selection tracks the glyphs of a subset. The new glyph ID of a glyph is
// its index in gids.
type selection struct {
	gids  []glyph.ID
	newID map[glyph.ID]glyph.ID
	codes cmap.Format4
}

func newSelection() *selection {
	return &selection{
		gids:  []glyph.ID{0},
		newID: map[glyph.ID]glyph.ID{0: 0},
		codes: cmap.Format4{},
	}
}

func (s *selection) addGlyph(gid glyph.ID) glyph.ID {
	if id, ok := s.newID[gid]; ok {
		return id
	}
	id := glyph.ID(len(s.gids))
	s.gids = append(s.gids, gid)
	s.newID[gid] = id
	return id
}

func (s *selection) add(r rune, gid glyph.ID) {
	s.codes[uint16(r)] = s.addGlyph(gid)
}

// addComponents pulls in the glyphs referenced by composite glyphs.
func (s *selection) addComponents(outlines *glyf.Outlines) {
	for i := 0; i < len(s.gids); i++ {
		gid := s.gids[i]
		if int(gid) >= len(outlines.Glyphs) || outlines.Glyphs[gid] == nil {
			continue
		}
		for _, c := range outlines.Glyphs[gid].Components() {
			s.addGlyph(c)
		}
	}
}
