// Package pipeline implements the Markdown-to-blocks conversion pipeline.
//
// The package handles the stages between Markdown source and the block
// document handed to the renderer:
//   - Markdown preprocessing (line endings, whitespace-only lines)
//   - Traversal of the document tree by the conversion Machine
//
// The Machine consumes the depth-first enter/exit event stream of an
// mdtree.Tree and keeps three depth-correlated stacks: inline styles,
// paragraphs in progress and lists in progress. Completed blocks are
// appended to an element.Document with their vertical margins.
//
// Rendering is handled separately by internal/render and the root mdblocks
// package. Content problems (unloadable images, malformed directives,
// invalid formulas) are reported to the injected logger and skipped;
// only broken stack discipline aborts a conversion.
package pipeline
