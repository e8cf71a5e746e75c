package musicxml

import (
	"bytes"
	"encoding/xml"
	"io"
	"path"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/Seg0r/MuShee-sub000/pkg/errcodes"
)

const (
	manifestDir  = "META-INF/"
	manifestPath = "META-INF/container.xml"

	// MaxDocumentSize caps how much an entry may inflate to when it is read
	// out of a compressed container.
	MaxDocumentSize = 64 << 20
)

// zipMagic is the start of a ZIP local file header.
var zipMagic = []byte("PK")

type containerManifest struct {
	XMLName   xml.Name `xml:"container"`
	Rootfiles struct {
		Rootfile []struct {
			FullPath  string `xml:"full-path,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

// IsContainer reports whether data looks like a compressed (.mxl) container
// rather than a plain XML document.
func IsContainer(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

// ExtractXML returns the primary MusicXML document held in data. Plain XML is
// returned as is. For a compressed container the entry named by
// META-INF/container.xml is used, falling back to the first .xml/.musicxml
// entry outside META-INF when the manifest is missing or doesn't resolve.
func ExtractXML(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errcodes.InvalidMusicXML("The file is empty.")
	}
	if !IsContainer(data) {
		return string(data), nil
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errcodes.InvalidMusicXML("The compressed MusicXML file could not be opened.")
	}

	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		entries[normalizeEntryName(f.Name)] = f
	}

	if manifest, ok := entries[manifestPath]; ok {
		if name := rootfileFromManifest(manifest); name != "" {
			if f, ok := entries[name]; ok {
				return readEntry(f)
			}
		}
	}

	if f := firstDocumentEntry(zr.File); f != nil {
		return readEntry(f)
	}

	return "", errcodes.InvalidMusicXML("No usable MusicXML document found in the compressed file.")
}

// rootfileFromManifest returns the normalized path of the score declared by
// the container manifest, or "" if the manifest can't be used.
func rootfileFromManifest(f *zip.File) string {
	content, err := readEntry(f)
	if err != nil {
		return ""
	}
	manifest := &containerManifest{}
	if err := xml.Unmarshal([]byte(content), manifest); err != nil {
		return ""
	}

	// The first rootfile is the score; later ones may be alternate
	// renditions such as PDFs.
	var first string
	for _, rf := range manifest.Rootfiles.Rootfile {
		name := normalizeEntryName(rf.FullPath)
		if name == "" {
			continue
		}
		if first == "" {
			first = name
		}
		if hasDocumentExtension(name) || strings.Contains(rf.MediaType, "musicxml") {
			return name
		}
	}
	return first
}

func firstDocumentEntry(files []*zip.File) *zip.File {
	for _, f := range files {
		name := normalizeEntryName(f.Name)
		if f.FileInfo().IsDir() || strings.HasPrefix(name, manifestDir) {
			continue
		}
		if strings.HasSuffix(strings.ToLower(name), ".xml") {
			return f
		}
	}
	for _, f := range files {
		name := normalizeEntryName(f.Name)
		if f.FileInfo().IsDir() || strings.HasPrefix(name, manifestDir) {
			continue
		}
		if hasDocumentExtension(name) {
			return f
		}
	}
	return nil
}

func readEntry(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", errcodes.InvalidMusicXML("The compressed MusicXML file is corrupt.")
	}
	defer rc.Close()

	// The archive is already in memory, so any read failure is corruption.
	b, err := io.ReadAll(io.LimitReader(rc, MaxDocumentSize+1))
	if err != nil {
		return "", errcodes.InvalidMusicXML("The compressed MusicXML file is corrupt.")
	}
	if len(b) > MaxDocumentSize {
		return "", errcodes.InvalidMusicXML("The MusicXML document inside the compressed file is too large.")
	}
	return string(b), nil
}

func normalizeEntryName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}
	name = path.Clean(name)
	if name == "." {
		return ""
	}
	return name
}

func hasDocumentExtension(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".xml" || ext == ".musicxml"
}
