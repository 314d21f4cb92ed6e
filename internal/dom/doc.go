// Package dom provides the rendered document tree that extraction runs on.
//
// A Document is a tree of element and text nodes where every element carries
// its computed style (foreground color, background color, background image
// and font family) together with the image state a browser would report
// (current source and natural size).
//
// Two builders produce the same tree:
//   - Parse builds it from HTML and stylesheets with a small cascade:
//     user-agent defaults, author sheets ordered by specificity and position,
//     !important, inline style and inheritance of color and font-family.
//   - FromSnapshot decodes the tree serialized by a live browser page.
//
// Extraction never mutates a Document, so any number of readers may walk
// it one after another.
package dom
