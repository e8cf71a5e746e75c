package musicxml

import (
	"context"
	"encoding/xml"
	"io"
	"strings"
	"time"

	"github.com/Seg0r/MuShee-sub000/pkg/errcodes"
	"github.com/pkg/errors"
	"golang.org/x/net/html/charset"
)

// DefaultParseTimeout is used by extractors created with a zero timeout.
const DefaultParseTimeout = 5 * time.Second

// ctxCheckInterval is how many tokens are decoded between deadline checks.
const ctxCheckInterval = 256

// Metadata is the sanitized descriptive information of a score.
type Metadata struct {
	Title    string  `json:"title"`
	Composer string  `json:"composer"`
	Subtitle *string `json:"subtitle"`
}

// Extractor parses MusicXML documents into Metadata within a fixed time
// budget.
type Extractor struct {
	timeout time.Duration
}

func NewExtractor(timeout time.Duration) *Extractor {
	if timeout <= 0 {
		timeout = DefaultParseTimeout
	}
	return &Extractor{timeout: timeout}
}

// Extract parses doc and derives its title, composer and subtitle.
//
// The title comes from work/work-title, falling back to movement-title. The
// composer is the identification/creator typed "composer", falling back to
// the first creator. The subtitle is a credit typed "subtitle", or the
// movement title when it differs from the work title. It fails when the
// document is malformed, isn't a score, takes longer than the extractor's
// timeout, or yields neither a title nor a composer.
func (x *Extractor) Extract(ctx context.Context, doc string) (*Metadata, error) {
	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	fields, err := scanDocument(ctx, doc)
	if err != nil {
		return nil, err
	}

	md := &Metadata{
		Title:    Sanitize(fields.title()),
		Composer: Sanitize(fields.composer()),
	}
	if subtitle := Sanitize(fields.subtitle()); subtitle != "" {
		md.Subtitle = &subtitle
	}

	if md.Title == "" && md.Composer == "" {
		return nil, errcodes.InvalidMusicXML("The score has no usable title or composer information.")
	}
	return md, nil
}

type creator struct {
	kind string
	name string
}

// scannedFields holds raw, unsanitized values as they were found.
type scannedFields struct {
	root          string
	workTitle     string
	movementTitle string
	creators      []creator
	subtitles     []string
}

func (f *scannedFields) title() string {
	if strings.TrimSpace(f.workTitle) != "" {
		return f.workTitle
	}
	return f.movementTitle
}

func (f *scannedFields) composer() string {
	for _, c := range f.creators {
		if strings.EqualFold(strings.TrimSpace(c.kind), "composer") && strings.TrimSpace(c.name) != "" {
			return c.name
		}
	}
	for _, c := range f.creators {
		if strings.TrimSpace(c.name) != "" {
			return c.name
		}
	}
	return ""
}

func (f *scannedFields) subtitle() string {
	for _, s := range f.subtitles {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	work := strings.TrimSpace(f.workTitle)
	movement := strings.TrimSpace(f.movementTitle)
	if work != "" && movement != "" && !strings.EqualFold(work, movement) {
		return f.movementTitle
	}
	return ""
}

// credit accumulates one <credit> block while it is being decoded.
type credit struct {
	types []string
	words []string
}

func scanDocument(ctx context.Context, doc string) (*scannedFields, error) {
	dec := xml.NewDecoder(strings.NewReader(doc))
	dec.CharsetReader = charset.NewReaderLabel

	fields := &scannedFields{}
	var (
		stack     []string
		text      strings.Builder
		capturing bool
		current   *credit
		kind      string
		tokens    int
	)

	for {
		tokens++
		if tokens%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, parseAborted(err)
			}
		}

		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, parseAborted(ctxErr)
			}
			return nil, errcodes.InvalidMusicXML("The file is not well-formed XML: " + err.Error())
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			parent := ""
			if len(stack) > 0 {
				parent = stack[len(stack)-1]
			}
			stack = append(stack, name)

			if len(stack) == 1 {
				if name != RootPartwise && name != RootTimewise {
					return nil, errcodes.InvalidMusicXML("This file doesn't look like a MusicXML score.")
				}
				fields.root = name
				continue
			}

			switch {
			case name == "work-title" && parent == "work",
				name == "movement-title" && len(stack) == 2,
				name == "creator" && parent == "identification",
				current != nil && (name == "credit-type" || name == "credit-words"):
				capturing = true
				text.Reset()
				kind = attr(t, "type")
			case name == "credit" && len(stack) == 2:
				current = &credit{}
			}

		case xml.CharData:
			if capturing {
				text.Write(t)
			}

		case xml.EndElement:
			name := t.Name.Local
			if capturing {
				value := text.String()
				switch name {
				case "work-title":
					if fields.workTitle == "" {
						fields.workTitle = value
					}
				case "movement-title":
					if fields.movementTitle == "" {
						fields.movementTitle = value
					}
				case "creator":
					fields.creators = append(fields.creators, creator{kind: kind, name: value})
				case "credit-type":
					current.types = append(current.types, strings.TrimSpace(value))
				case "credit-words":
					current.words = append(current.words, value)
				}
				capturing = false
			}
			if name == "credit" && current != nil && len(stack) == 2 {
				for _, ct := range current.types {
					if strings.EqualFold(ct, "subtitle") {
						fields.subtitles = append(fields.subtitles, strings.Join(current.words, " "))
						break
					}
				}
				current = nil
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if fields.root == "" {
		return nil, errcodes.InvalidMusicXML("This file doesn't look like a MusicXML score.")
	}
	return fields, nil
}

func parseAborted(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errcodes.InvalidMusicXML("Reading the MusicXML document took too long.")
	}
	return errors.WithStack(err)
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
