// Package render builds the listing page from HTML templates.
package render
