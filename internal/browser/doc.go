// Package browser renders pages in headless Chrome through chromedp.
//
// A Browser owns one Chrome process and opens every page in its own tab.
// The resulting Page scrolls through JavaScript and serializes the live DOM,
// computed styles included, with an embedded snapshot script.
package browser
