package testgen

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
	"testing"
)

// ScoreXML renders a minimal but valid MusicXML score.
func ScoreXML(opts ScoreOptions) []byte {
	root := "score-partwise"
	if opts.Timewise {
		root = "score-timewise"
	}
	measures := opts.Measures
	if measures < 1 {
		measures = 1
	}

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<!DOCTYPE ` + root + ` PUBLIC "-//Recordare//DTD MusicXML 4.0 Partwise//EN" "http://www.musicxml.org/dtds/partwise.dtd">
`)
	fmt.Fprintf(&buf, "<%s version=\"4.0\">\n", root)

	if opts.WorkTitle != "" {
		fmt.Fprintf(&buf, "  <work>\n    <work-title>%s</work-title>\n  </work>\n", escapeXML(opts.WorkTitle))
	}
	if opts.MovementTitle != "" {
		fmt.Fprintf(&buf, "  <movement-title>%s</movement-title>\n", escapeXML(opts.MovementTitle))
	}

	creators := opts.Creators
	if opts.Composer != "" {
		creators = append([]Creator{{Type: "composer", Name: opts.Composer}}, creators...)
	}
	buf.WriteString("  <identification>\n")
	for _, c := range creators {
		if c.Type != "" {
			fmt.Fprintf(&buf, "    <creator type=\"%s\">%s</creator>\n", escapeXML(c.Type), escapeXML(c.Name))
		} else {
			fmt.Fprintf(&buf, "    <creator>%s</creator>\n", escapeXML(c.Name))
		}
	}
	buf.WriteString("    <encoding>\n      <software>testgen</software>\n    </encoding>\n  </identification>\n")

	if opts.Subtitle != "" {
		fmt.Fprintf(&buf, "  <credit page=\"1\">\n    <credit-type>subtitle</credit-type>\n    <credit-words>%s</credit-words>\n  </credit>\n", escapeXML(opts.Subtitle))
	}

	buf.WriteString("  <part-list>\n    <score-part id=\"P1\">\n      <part-name>Piano</part-name>\n    </score-part>\n  </part-list>\n")
	if opts.Timewise {
		for i := 1; i <= measures; i++ {
			fmt.Fprintf(&buf, "  <measure number=\"%d\">\n    <part id=\"P1\">\n      <note><rest/><duration>4</duration></note>\n    </part>\n  </measure>\n", i)
		}
	} else {
		buf.WriteString("  <part id=\"P1\">\n")
		for i := 1; i <= measures; i++ {
			fmt.Fprintf(&buf, "    <measure number=\"%d\">\n      <note><rest/><duration>4</duration></note>\n    </measure>\n", i)
		}
		buf.WriteString("  </part>\n")
	}
	fmt.Fprintf(&buf, "</%s>\n", root)

	return buf.Bytes()
}

// MXL packs a score into a compressed MusicXML container.
func MXL(t *testing.T, opts MXLOptions) []byte {
	t.Helper()

	scorePath := opts.ScorePath
	if scorePath == "" {
		scorePath = "score.xml"
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	// mimetype goes first and uncompressed, as in EPUB.
	w, err := zw.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		t.Fatalf("failed to create mimetype entry: %v", err)
	}
	if _, err := w.Write([]byte("application/vnd.recordare.musicxml")); err != nil {
		t.Fatalf("failed to write mimetype: %v", err)
	}

	if opts.Manifest {
		fullPath := opts.ManifestPath
		if fullPath == "" {
			fullPath = scorePath
		}
		manifest := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<container>
  <rootfiles>
    <rootfile full-path="%s" media-type="application/vnd.recordare.musicxml+xml"/>
  </rootfiles>
</container>`, escapeXML(fullPath))
		if err := writeZipFile(zw, "META-INF/container.xml", []byte(manifest)); err != nil {
			t.Fatalf("failed to write container.xml: %v", err)
		}
	}

	if opts.Score != nil {
		if err := writeZipFile(zw, scorePath, opts.Score); err != nil {
			t.Fatalf("failed to write score: %v", err)
		}
	}

	names := make([]string, 0, len(opts.Extra))
	for name := range opts.Extra {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writeZipFile(zw, name, opts.Extra[name]); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("failed to finalize container: %v", err)
	}
	return buf.Bytes()
}

func writeZipFile(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		case '"':
			buf.WriteString("&quot;")
		case '\'':
			buf.WriteString("&apos;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
