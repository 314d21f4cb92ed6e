// Package report renders analyses for people and tools.
//
// Three writers implement the Writer interface:
//   - SimpleWriter: terminal output with color swatches
//   - JSONWriter: the extraction report as the host receives it
//   - MarkdownWriter: a shareable document with palette and image tables
//
// Colors are stored in their computed rgb() form; the writers convert them
// with HexColor for display only.
package report
