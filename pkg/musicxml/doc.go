// Package musicxml reads uploaded sheet music. It unwraps compressed (.mxl)
// containers, runs a cheap structural pre-check and extracts the title,
// composer and subtitle of a score.
package musicxml
