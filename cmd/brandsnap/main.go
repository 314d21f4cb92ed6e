// Package main provides the entry point for the brandsnap CLI.
//
// brandsnap extracts the visual brand signature of a web page: its dominant
// colors, font families, images, visible text and metadata.
//
// Usage:
//
//	brandsnap analyze <url>
//	brandsnap analyze --browser --variant advanced <url>...
//	brandsnap history [url]
//	brandsnap compare <url>
//
// See --help for all available options.
package main

func main() {
	Execute()
}
