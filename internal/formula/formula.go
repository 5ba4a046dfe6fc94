package formula

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alnah/go-mdblocks/internal/element"
)

// ErrSyntax is returned for sources outside the supported TeX subset.
var ErrSyntax = errors.New("formula syntax error")

const mathNS = "http://www.w3.org/1998/Math/MathML"

// operatorChars are rendered as <mo>.
const operatorChars = "+-=<>*/!,;:|()[]'.?"

var identifiers = map[string]string{
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ϵ",
	"varepsilon": "ε", "zeta": "ζ", "eta": "η", "theta": "θ", "vartheta": "ϑ",
	"iota": "ι", "kappa": "κ", "lambda": "λ", "mu": "μ", "nu": "ν", "xi": "ξ",
	"pi": "π", "rho": "ρ", "sigma": "σ", "tau": "τ", "upsilon": "υ",
	"phi": "ϕ", "varphi": "φ", "chi": "χ", "psi": "ψ", "omega": "ω",
	"Gamma": "Γ", "Delta": "Δ", "Theta": "Θ", "Lambda": "Λ", "Xi": "Ξ",
	"Pi": "Π", "Sigma": "Σ", "Phi": "Φ", "Psi": "Ψ", "Omega": "Ω",
	"infty": "∞", "partial": "∂", "nabla": "∇", "hbar": "ℏ", "ell": "ℓ",
}

var operators = map[string]string{
	"sum": "∑", "prod": "∏", "int": "∫", "oint": "∮",
	"cdot": "⋅", "times": "×", "div": "÷", "pm": "±", "mp": "∓",
	"le": "≤", "leq": "≤", "ge": "≥", "geq": "≥", "ne": "≠", "neq": "≠",
	"approx": "≈", "equiv": "≡", "sim": "∼", "propto": "∝",
	"to": "→", "rightarrow": "→", "leftarrow": "←", "Rightarrow": "⇒",
	"Leftarrow": "⇐", "Leftrightarrow": "⇔", "mapsto": "↦",
	"in": "∈", "notin": "∉", "subset": "⊂", "subseteq": "⊆", "cup": "∪",
	"cap": "∩", "forall": "∀", "exists": "∃", "neg": "¬", "land": "∧",
	"lor": "∨", "cdots": "⋯", "ldots": "…", "circ": "∘",
}

var functions = map[string]bool{
	"sin": true, "cos": true, "tan": true, "log": true, "ln": true,
	"exp": true, "lim": true, "max": true, "min": true, "det": true,
}

// Builder is the default formula constructor.
type Builder struct{}

// BuildFormula implements the constructor contract used by the pipeline.
func (Builder) BuildFormula(src string) (*element.Formula, error) {
	return Build(src)
}

// Build compiles a TeX math source into a display MathML formula.
func Build(src string) (*element.Formula, error) {
	if strings.TrimSpace(src) == "" {
		return nil, fmt.Errorf("%w: empty formula", ErrSyntax)
	}
	p := &parser{src: src}
	body, err := p.parseSeq(false)
	if err != nil {
		return nil, err
	}
	return &element.Formula{
		Source: src,
		MathML: `<math xmlns="` + mathNS + `" display="block"><mrow>` + body + `</mrow></math>`,
	}, nil
}

type parser struct {
	src string
	pos int
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d", ErrSyntax, fmt.Sprintf(format, args...), p.pos)
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() byte {
	return p.src[p.pos]
}

func (p *parser) skipSpace() {
	for !p.eof() && (p.peek() == ' ' || p.peek() == '\t') {
		p.pos++
	}
}

// parseSeq reads atoms until end of input, or until the matching '}'
// when inGroup is set.
func (p *parser) parseSeq(inGroup bool) (string, error) {
	var b strings.Builder
	for {
		p.skipSpace()
		if p.eof() {
			if inGroup {
				return "", p.errorf("missing '}'")
			}
			return b.String(), nil
		}

		c := p.peek()
		if c == '}' {
			if !inGroup {
				return "", p.errorf("unexpected '}'")
			}
			p.pos++
			return b.String(), nil
		}

		base := "<mrow></mrow>"
		if c != '^' && c != '_' {
			atom, err := p.parseAtom()
			if err != nil {
				return "", err
			}
			base = atom
		}

		out, err := p.parseScripts(base)
		if err != nil {
			return "", err
		}
		b.WriteString(out)
	}
}

// parseScripts attaches optional sub- and superscripts to base.
func (p *parser) parseScripts(base string) (string, error) {
	var sub, sup string
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		c := p.peek()
		if c != '^' && c != '_' {
			break
		}
		if (c == '^' && sup != "") || (c == '_' && sub != "") {
			return "", p.errorf("double %q", c)
		}
		p.pos++
		p.skipSpace()
		if p.eof() || strings.IndexByte("}^_", p.peek()) >= 0 {
			return "", p.errorf("missing script after %q", c)
		}
		atom, err := p.parseAtom()
		if err != nil {
			return "", err
		}
		if c == '^' {
			sup = atom
		} else {
			sub = atom
		}
	}

	switch {
	case sub != "" && sup != "":
		return "<msubsup>" + base + sub + sup + "</msubsup>", nil
	case sub != "":
		return "<msub>" + base + sub + "</msub>", nil
	case sup != "":
		return "<msup>" + base + sup + "</msup>", nil
	}
	return base, nil
}

func (p *parser) parseAtom() (string, error) {
	c := p.peek()
	switch {
	case c == '{':
		p.pos++
		inner, err := p.parseSeq(true)
		if err != nil {
			return "", err
		}
		return "<mrow>" + inner + "</mrow>", nil
	case c == '\\':
		return p.parseCommand()
	case c == '}' || c == '^' || c == '_':
		return "", p.errorf("unexpected %q", c)
	case c >= '0' && c <= '9':
		start := p.pos
		for !p.eof() && (isDigit(p.peek()) || p.peek() == '.' && p.pos+1 < len(p.src) && isDigit(p.src[p.pos+1])) {
			p.pos++
		}
		return "<mn>" + p.src[start:p.pos] + "</mn>", nil
	case c < utf8.RuneSelf && strings.IndexByte(operatorChars, c) >= 0:
		p.pos++
		return "<mo>" + html.EscapeString(string(c)) + "</mo>", nil
	}

	r, size := utf8.DecodeRuneInString(p.src[p.pos:])
	if r == utf8.RuneError && size <= 1 {
		return "", p.errorf("invalid UTF-8")
	}
	p.pos += size
	if unicode.IsLetter(r) {
		return "<mi>" + html.EscapeString(string(r)) + "</mi>", nil
	}
	return "<mo>" + html.EscapeString(string(r)) + "</mo>", nil
}

func (p *parser) parseCommand() (string, error) {
	p.pos++ // backslash
	if p.eof() {
		return "", p.errorf("dangling backslash")
	}

	if c := p.peek(); !isLetter(c) {
		p.pos++
		switch c {
		case '{', '}', '|', '\\', '%', '$', '#', '&':
			return "<mo>" + html.EscapeString(string(c)) + "</mo>", nil
		case ',':
			return `<mspace width="0.167em"></mspace>`, nil
		case ':':
			return `<mspace width="0.222em"></mspace>`, nil
		case ';':
			return `<mspace width="0.278em"></mspace>`, nil
		case ' ':
			return `<mspace width="0.333em"></mspace>`, nil
		}
		return "", p.errorf("unknown command \\%c", c)
	}

	start := p.pos
	for !p.eof() && isLetter(p.peek()) {
		p.pos++
	}
	name := p.src[start:p.pos]

	switch name {
	case "frac":
		num, err := p.parseArg(name)
		if err != nil {
			return "", err
		}
		den, err := p.parseArg(name)
		if err != nil {
			return "", err
		}
		return "<mfrac>" + num + den + "</mfrac>", nil
	case "sqrt":
		arg, err := p.parseArg(name)
		if err != nil {
			return "", err
		}
		return "<msqrt>" + arg + "</msqrt>", nil
	case "text", "mathrm":
		text, err := p.parseText(name)
		if err != nil {
			return "", err
		}
		return "<mtext>" + html.EscapeString(text) + "</mtext>", nil
	case "quad":
		return `<mspace width="1em"></mspace>`, nil
	case "qquad":
		return `<mspace width="2em"></mspace>`, nil
	}

	if s, ok := identifiers[name]; ok {
		return "<mi>" + s + "</mi>", nil
	}
	if s, ok := operators[name]; ok {
		return "<mo>" + s + "</mo>", nil
	}
	if functions[name] {
		return "<mi>" + name + "</mi>", nil
	}
	return "", p.errorf("unknown command \\%s", name)
}

// parseArg reads one mandatory argument of cmd.
func (p *parser) parseArg(cmd string) (string, error) {
	p.skipSpace()
	if p.eof() || p.peek() == '}' {
		return "", p.errorf("missing argument for \\%s", cmd)
	}
	return p.parseAtom()
}

// parseText reads a brace-delimited literal text argument.
func (p *parser) parseText(cmd string) (string, error) {
	p.skipSpace()
	if p.eof() || p.peek() != '{' {
		return "", p.errorf("\\%s expects {text}", cmd)
	}
	end := strings.IndexByte(p.src[p.pos:], '}')
	if end < 0 {
		return "", p.errorf("missing '}'")
	}
	text := p.src[p.pos+1 : p.pos+end]
	p.pos += end + 1
	return text, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
