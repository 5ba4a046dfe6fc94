package main

import (
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// documentFlags holds text layout flags.
type documentFlags struct {
	title     string
	lang      string
	fontSize  float64
	noJustify bool
}

// pageFlags holds page geometry flags. Margins are in millimeters.
type pageFlags struct {
	size         string
	orientation  string
	marginTop    float64
	marginRight  float64
	marginBottom float64
	marginLeft   float64
}

// outputFlags holds output mode flags for debugging.
type outputFlags struct {
	html     bool // Output HTML alongside PDF
	htmlOnly bool // Output HTML only, skip PDF
	printAST bool // Print the parsed event stream, convert nothing
}

// convertFlags holds all flags for the convert command.
type convertFlags struct {
	common     commonFlags
	output     string
	workers    int
	timeout    string
	document   documentFlags
	page       pageFlags
	outputMode outputFlags

	// changed records flags set on the command line, so that explicit
	// zero values (a 0 mm margin) still override the config.
	changed map[string]bool
}

// isSet reports whether the named flag was given on the command line.
func (f *convertFlags) isSet(name string) bool {
	return f.changed[name]
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug diagnostics and timing")
}

// addDocumentFlags adds text layout flags to a FlagSet.
func addDocumentFlags(fs *flag.FlagSet, f *documentFlags) {
	fs.StringVar(&f.title, "title", "", "document title (\"\" = file name)")
	fs.StringVar(&f.lang, "lang", "", "hyphenation language, e.g. en")
	fs.Float64Var(&f.fontSize, "font-size", 0, "body text size in pt")
	fs.BoolVar(&f.noJustify, "no-justify", false, "left-align paragraphs")
}

// addPageFlags adds page geometry flags to a FlagSet.
func addPageFlags(fs *flag.FlagSet, f *pageFlags) {
	fs.StringVarP(&f.size, "page-size", "p", "", "page size: a3, a4, a5, letter, legal")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.Float64Var(&f.marginTop, "margin-top", 0, "top margin in mm")
	fs.Float64Var(&f.marginRight, "margin-right", 0, "right margin in mm")
	fs.Float64Var(&f.marginBottom, "margin-bottom", 0, "bottom margin in mm")
	fs.Float64Var(&f.marginLeft, "margin-left", 0, "left margin in mm")
}

// addOutputFlags adds output mode flags to a FlagSet.
func addOutputFlags(fs *flag.FlagSet, f *outputFlags) {
	fs.BoolVar(&f.html, "html", false, "output HTML alongside PDF")
	fs.BoolVar(&f.htmlOnly, "html-only", false, "output HTML only, skip PDF")
	fs.BoolVar(&f.printAST, "print-ast", false, "print the parsed Markdown events and exit")
}

// newConvertFlagSet registers every convert flag on a new FlagSet bound to f.
// Shell completion reads the same set.
func newConvertFlagSet(f *convertFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)

	// I/O flags
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "PDF generation timeout (e.g., 30s, 2m)")

	// Flag groups
	addCommonFlags(fs, &f.common)
	addDocumentFlags(fs, &f.document)
	addPageFlags(fs, &f.page)
	addOutputFlags(fs, &f.outputMode)

	return fs
}

// parseConvertFlags parses convert command flags and returns positional args.
// Parse errors and usage go to w.
func parseConvertFlags(args []string, w io.Writer) (*convertFlags, []string, error) {
	f := &convertFlags{changed: make(map[string]bool)}
	fs := newConvertFlagSet(f)
	fs.SetOutput(w)
	fs.Usage = func() { printConvertUsage(w) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	fs.Visit(func(fl *flag.Flag) { f.changed[fl.Name] = true })

	return f, fs.Args(), nil
}

// doctorFlags holds flags for the doctor command.
type doctorFlags struct {
	config string
	json   bool
}

// newDoctorFlagSet registers the doctor flags on a new FlagSet bound to f.
func newDoctorFlagSet(f *doctorFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVar(&f.json, "json", false, "print the report as JSON")
	return fs
}
