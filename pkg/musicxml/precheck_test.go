package musicxml

import (
	"testing"

	"github.com/Seg0r/MuShee-sub000/internal/testgen"
	"github.com/Seg0r/MuShee-sub000/pkg/errcodes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrecheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		doc          string
		wantErr      bool
		wantRoot     string
		wantMetadata bool
	}{
		{
			name:         "generated partwise score",
			doc:          string(testgen.ScoreXML(testgen.ScoreOptions{WorkTitle: "Title", Composer: "Someone"})),
			wantRoot:     RootPartwise,
			wantMetadata: true,
		},
		{
			name:         "timewise without prolog",
			doc:          `<score-timewise><movement-title>Air</movement-title></score-timewise>`,
			wantRoot:     RootTimewise,
			wantMetadata: true,
		},
		{
			name:         "namespace-prefixed root",
			doc:          `<?xml version="1.0"?><mx:score-partwise xmlns:mx="http://www.musicxml.org/ns"><mx:work><mx:work-title>T</mx:work-title></mx:work></mx:score-partwise>`,
			wantRoot:     RootPartwise,
			wantMetadata: true,
		},
		{
			name:     "no metadata is still plausible",
			doc:      "\uFEFF  <?xml version=\"1.0\"?><score-partwise version=\"3.1\"><part-list/></score-partwise>",
			wantRoot: RootPartwise,
		},
		{
			name:    "plain text",
			doc:     "Title: Moonlight Sonata",
			wantErr: true,
		},
		{
			name:    "xml but not a score",
			doc:     `<?xml version="1.0"?><html><body>hi</body></html>`,
			wantErr: true,
		},
		{
			name:    "root name prefix only",
			doc:     `<score-partwise-ish/>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Precheck(tt.doc)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errcodes.CodeInvalidMusicXML, errcodes.Kind(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRoot, result.RootElement)
			assert.Equal(t, tt.wantMetadata, result.HasMetadata)
		})
	}
}
