// Package testgen builds MusicXML documents and compressed .mxl containers
// with configurable metadata for tests.
package testgen

// ScoreOptions configures a generated MusicXML score. Empty fields are left
// out of the document entirely.
type ScoreOptions struct {
	WorkTitle     string
	MovementTitle string
	Subtitle      string // written as a <credit> typed "subtitle"
	Composer      string // written as <creator type="composer">
	Creators      []Creator
	Timewise      bool
	// Measures pads the score with this many empty measures, handy for
	// producing large documents. Defaults to 1.
	Measures int
}

// Creator is an identification/creator element.
type Creator struct {
	Type string // omitted when empty
	Name string
}

// MXLOptions configures a generated compressed MusicXML container.
type MXLOptions struct {
	// ScorePath is where the score lives inside the archive, e.g.
	// "musicxml/score.xml". Defaults to "score.xml".
	ScorePath string
	Score     []byte
	// Manifest controls META-INF/container.xml: when false no manifest is
	// written; ManifestPath overrides the full-path it declares.
	Manifest     bool
	ManifestPath string
	// Extra entries written after the score, keyed by archive path.
	Extra map[string][]byte
}
