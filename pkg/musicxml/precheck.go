package musicxml

import (
	"regexp"
	"strings"

	"github.com/Seg0r/MuShee-sub000/pkg/errcodes"
)

// Root elements of the two MusicXML score layouts.
const (
	RootPartwise = "score-partwise"
	RootTimewise = "score-timewise"
)

var (
	rootElementRE  = regexp.MustCompile(`<(?:[\w.-]+:)?(score-partwise|score-timewise)[\s>/]`)
	openingTagRE   = regexp.MustCompile(`^<[A-Za-z_]`)
	metadataMarker = regexp.MustCompile(`<(?:[\w.-]+:)?(?:work-title|movement-title|creator)[\s>/]`)
)

// PrecheckResult describes what the structural pre-check saw.
type PrecheckResult struct {
	RootElement string
	// HasMetadata is advisory: a document without any title or creator
	// element passes the pre-check but will fail full extraction.
	HasMetadata bool
}

// Precheck is a cheap plausibility probe run before a full parse. The
// document must start with an XML prolog, declaration or opening tag and
// contain a score root element.
func Precheck(doc string) (*PrecheckResult, error) {
	s := strings.TrimPrefix(doc, "\uFEFF")
	s = strings.TrimLeft(s, " \t\r\n")

	if !strings.HasPrefix(s, "<?xml") && !strings.HasPrefix(s, "<!") && !openingTagRE.MatchString(s) {
		return nil, errcodes.InvalidMusicXML("This file doesn't look like an XML document.")
	}

	m := rootElementRE.FindStringSubmatch(s)
	if m == nil {
		return nil, errcodes.InvalidMusicXML("This file doesn't look like a MusicXML score.")
	}

	return &PrecheckResult{
		RootElement: m[1],
		HasMetadata: metadataMarker.MatchString(s),
	}, nil
}
