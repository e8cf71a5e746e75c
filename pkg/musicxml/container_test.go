package musicxml

import (
	"testing"

	"github.com/Seg0r/MuShee-sub000/internal/testgen"
	"github.com/Seg0r/MuShee-sub000/pkg/errcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractXML_PlainDocumentReturnedAsIs(t *testing.T) {
	t.Parallel()

	score := testgen.ScoreXML(testgen.ScoreOptions{WorkTitle: "Prelude", Composer: "Bach"})
	doc, err := ExtractXML(score)
	require.NoError(t, err)
	assert.Equal(t, string(score), doc)
}

func TestExtractXML_EmptyInput(t *testing.T) {
	t.Parallel()

	_, err := ExtractXML(nil)
	require.Error(t, err)
	assert.Equal(t, errcodes.CodeInvalidMusicXML, errcodes.Kind(err))
}

func TestExtractXML_ManifestNamesEntry(t *testing.T) {
	t.Parallel()

	score := testgen.ScoreXML(testgen.ScoreOptions{WorkTitle: "Clair de Lune", Composer: "Debussy"})
	data := testgen.MXL(t, testgen.MXLOptions{
		ScorePath: "score.xml",
		Score:     score,
		Manifest:  true,
	})
	require.True(t, IsContainer(data))

	doc, err := ExtractXML(data)
	require.NoError(t, err)
	assert.Equal(t, string(score), doc)
}

func TestExtractXML_ManifestPointsIntoSubdirectory(t *testing.T) {
	t.Parallel()

	score := testgen.ScoreXML(testgen.ScoreOptions{WorkTitle: "Gymnopedie No. 1", Composer: "Satie"})
	decoy := testgen.ScoreXML(testgen.ScoreOptions{WorkTitle: "Decoy", Composer: "Nobody"})
	data := testgen.MXL(t, testgen.MXLOptions{
		ScorePath: "musicxml/score.xml",
		Score:     score,
		Manifest:  true,
		Extra:     map[string][]byte{"aaa-first.xml": decoy},
	})

	doc, err := ExtractXML(data)
	require.NoError(t, err)
	assert.Equal(t, string(score), doc)
}

func TestExtractXML_NoManifestFallsBackToFirstXMLEntry(t *testing.T) {
	t.Parallel()

	score := testgen.ScoreXML(testgen.ScoreOptions{WorkTitle: "Canon in D", Composer: "Pachelbel"})
	data := testgen.MXL(t, testgen.MXLOptions{ScorePath: "canon.xml", Score: score})

	doc, err := ExtractXML(data)
	require.NoError(t, err)
	assert.Equal(t, string(score), doc)
}

func TestExtractXML_DanglingManifestFallsBack(t *testing.T) {
	t.Parallel()

	score := testgen.ScoreXML(testgen.ScoreOptions{WorkTitle: "Für Elise", Composer: "Beethoven"})
	data := testgen.MXL(t, testgen.MXLOptions{
		ScorePath:    "elise.xml",
		Score:        score,
		Manifest:     true,
		ManifestPath: "missing/score.xml",
	})

	doc, err := ExtractXML(data)
	require.NoError(t, err)
	assert.Equal(t, string(score), doc)
}

func TestExtractXML_FallbackSkipsManifestFolder(t *testing.T) {
	t.Parallel()

	data := testgen.MXL(t, testgen.MXLOptions{
		Extra: map[string][]byte{
			"META-INF/other.xml": []byte("<other/>"),
			"notes.txt":          []byte("not a score"),
		},
	})

	_, err := ExtractXML(data)
	require.Error(t, err)
	assert.Equal(t, errcodes.CodeInvalidMusicXML, errcodes.Kind(err))
	assert.Contains(t, err.Error(), "No usable MusicXML document")
}

func TestExtractXML_CorruptArchive(t *testing.T) {
	t.Parallel()

	_, err := ExtractXML([]byte("PK\x03\x04 definitely not a zip"))
	require.Error(t, err)
	assert.Equal(t, errcodes.CodeInvalidMusicXML, errcodes.Kind(err))
}

func TestNormalizeEntryName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "musicxml/score.xml", normalizeEntryName("/musicxml/score.xml"))
	assert.Equal(t, "musicxml/score.xml", normalizeEntryName("./musicxml//score.xml"))
	assert.Equal(t, "musicxml/score.xml", normalizeEntryName(`musicxml\score.xml`))
	assert.Equal(t, "", normalizeEntryName(""))
}
