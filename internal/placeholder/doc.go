// Package placeholder substitutes {{field}} placeholders in text templates.
//
// Templates are plain strings shared by the HTML page, the calendar feed and the
// email broadcasts. A placeholder whose field is absent is left untouched, so
// renderers can reuse a template with a subset of fields; Validate catches
// misspelled placeholders when templates are loaded.
package placeholder
