// Package fetch loads pages without a browser.
//
// A Loader downloads the HTML of an http(s) target, or reads a local file,
// decodes it to UTF-8, pulls in the linked style sheets and hands the lot
// to dom.Parse. The result is a StaticPage: a page whose computed styles
// come from a static cascade and whose viewport never grows.
package fetch
