// Package bookpress assembles picture books into print-ready PDF documents.
//
// # Quick Start
//
// Create a builder, adapt an input source, and build:
//
//	b := bookpress.New()
//
//	src, err := manifest.Load("book.json", "images/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := b.Build(ctx, bookpress.Input{
//	    Source: src,
//	    Output: bookpress.OutputSpec{Path: "book.pdf"},
//	})
//
// The result names every document written: the main book, and, when the
// source carries cover or back images, the separate cover and back
// documents.
//
// # Build Pipeline
//
// A build runs these stages:
//
//  1. Geometry resolution: trim size from explicit dimensions, from the
//     aspect ratio of a sample image (auto-trim), or from fixed presets;
//     bleed is added symmetrically on all four sides.
//  2. Background sampling: each scene image is downsampled and blended
//     into a page background color with a readability floor, plus a
//     contrasting text color (black or white).
//  3. Text fitting: scene text is greedily wrapped and shrunk from the
//     base font size until the block fits the page, then centered.
//  4. Page sequencing: scenes alternate text/image order by parity, with
//     optional front and closing matter pages and optional crop marks.
//
// # Page Order
//
// Odd-numbered scenes (1st, 3rd, ...) place their text page before the
// image page; even-numbered scenes reverse the order. The main document
// is cover (unless split), front matter, scene pages, closing matter.
// A back cover never joins the main document: whenever the source has a
// back image it is written as a separate single-page document.
//
// # Machine-Readable Progress
//
// Supervising processes can follow a build through a line protocol
// emitted on Input.Progress:
//
//	PDFTOTAL|<n>            once, before any page is drawn
//	PDFPAGE|<page>|<total>  after each committed page
//	PDFDONE                 once, after the document is written
//
// # Fonts
//
// Text is drawn with a TTF font registered per document (the bundled
// default covers Cyrillic). When the font file is missing or invalid the
// builder falls back to the built-in Helvetica and logs a warning.
package bookpress
