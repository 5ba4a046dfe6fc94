package fontsubset

import (
	"fmt"
	"os"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// Face selects one member of a font family.
type Face int

// Faces of a family.
const (
	Regular Face = iota
	Bold
	Italic
	BoldItalic
	numFaces
)

var faceNames = [numFaces]string{"regular", "bold", "italic", "bold italic"}

func (f Face) String() string {
	if f < 0 || f >= numFaces {
		return fmt.Sprintf("Face(%d)", int(f))
	}
	return faceNames[f]
}

// Bold reports whether the face has bold weight.
func (f Face) Bold() bool { return f == Bold || f == BoldItalic }

// Italic reports whether the face is slanted.
func (f Face) Italic() bool { return f == Italic || f == BoldItalic }

// Family is a set of font files. A nil face is left for the renderer to
// synthesize from the regular face.
type Family struct {
	Name  string
	Faces [numFaces][]byte
}

// GoFamily returns the Go font family.
func GoFamily() Family {
	return Family{
		Name: "Go",
		Faces: [numFaces][]byte{
			Regular:    goregular.TTF,
			Bold:       gobold.TTF,
			Italic:     goitalic.TTF,
			BoldItalic: gobolditalic.TTF,
		},
	}
}

// Paths names the font files of a custom family.
type Paths struct {
	Regular    string
	Bold       string
	Italic     string
	BoldItalic string
}

// IsZero reports whether no file is named.
func (p Paths) IsZero() bool {
	return p == Paths{}
}

// LoadFamily reads the named font files. The regular face is required.
func LoadFamily(name string, paths Paths) (Family, error) {
	if paths.Regular == "" {
		return Family{}, ErrNoRegular
	}
	fam := Family{Name: name}
	for face, path := range [numFaces]string{paths.Regular, paths.Bold, paths.Italic, paths.BoldItalic} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path) // #nosec G304 -- configured font file
		if err != nil {
			return Family{}, fmt.Errorf("reading %s face: %w", Face(face), err)
		}
		fam.Faces[face] = data
	}
	return fam, nil
}

// Subset returns a copy of the family with every face reduced to the
// glyphs needed for reference.
func (fam Family) Subset(reference string) (Family, error) {
	out := Family{Name: fam.Name}
	for face, data := range fam.Faces {
		if data == nil {
			continue
		}
		sub, err := Subset(data, reference)
		if err != nil {
			return Family{}, fmt.Errorf("%s face of %s: %w", Face(face), fam.Name, err)
		}
		out.Faces[face] = sub
	}
	return out, nil
}
