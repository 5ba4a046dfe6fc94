// Package mdblocks converts Markdown documents to PDF through a block
// document model, using headless Chrome for the final print.
//
// # Quick Start
//
// Create a converter, convert markdown, and close when done:
//
//	conv, err := mdblocks.NewConverter()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conv.Close()
//
//	result, err := conv.Convert(ctx, mdblocks.Input{
//	    Markdown: "# Hello\n\nWorld",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("output.pdf", result.PDF, 0644)
//
// The result carries the block document (result.Document), the paged HTML
// (result.HTML) and the PDF bytes (result.PDF). Use Input.HTMLOnly to skip
// the browser.
//
// # Conversion Pipeline
//
//  1. Markdown preprocessing (line ending normalization, whitespace-only lines emptied)
//  2. Parsing into an index-linked node tree via Goldmark (CommonMark + strikethrough)
//  3. Font subsetting of every face against the document text
//  4. A single traversal building blocks: paragraphs of styled runs, lists,
//     images, formulas and page breaks
//  5. Paged HTML rendering (@page geometry, embedded fonts and images)
//  6. PDF printing via headless Chrome (go-rod)
//
// Images carry their transform in the title, as comma separated key=value
// clauses:
//
//	![Plot](plot.png "scale=0.5, rotate=90")
//
// Recognized keys are scale, scale-x, scale-y and rotate (clockwise degrees).
// Fenced code blocks tagged math hold TeX formulas, one per group of
// consecutive non-blank lines:
//
//	```math
//	E = mc^2
//
//	\frac{a}{b}
//	```
//
// A thematic break (---) starts a new page. Images that cannot be loaded and
// formulas that do not compile are skipped and reported on the logger given
// with WithLogger.
//
// # Configuration
//
//	conv, err := mdblocks.NewConverter(
//	    mdblocks.WithTimeout(2 * time.Minute),
//	    mdblocks.WithLayout(mdblocks.Layout{TextSize: 12, ParagraphSpacing: 3, HeaderSpacing: 4}),
//	    mdblocks.WithLogger(logger),
//	)
//
// # Parallel Processing
//
// For batch conversion, use ConverterPool to manage multiple browser instances:
//
//	pool := mdblocks.NewConverterPool(4)
//	defer pool.Close()
//
//	conv := pool.Acquire()
//	defer pool.Release(conv)
//	result, err := conv.Convert(ctx, input)
//
// # Browser Requirements
//
// PDF generation requires Chrome/Chromium. The go-rod library automatically
// downloads a managed Chromium instance on first run (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package mdblocks
