package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/ottobar/internal/domain"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line    string
		want    Command
		wantErr error
	}{
		{line: "REQUEST Menu", want: Command{Verb: VerbRequest, Resource: "Menu"}},
		{line: "REQUEST Stock\r\n", want: Command{Verb: VerbRequest, Resource: "Stock"}},
		{line: "REQUEST Anything else", want: Command{Verb: VerbRequest, Resource: "Anything else"}},
		{
			line: `POST Menu [{"name":"Gibson","amounts":[60,10,0,0]}]`,
			want: Command{Verb: VerbPost, Resource: "Menu", Payload: []byte(`[{"name":"Gibson","amounts":[60,10,0,0]}]`)},
		},
		{
			line: "POST Stock [\n {\"name\": \"Gin\", \"amount\": 700}\n]",
			want: Command{Verb: VerbPost, Resource: "Stock", Payload: []byte("[\n {\"name\": \"Gin\", \"amount\": 700}\n]")},
		},
		{line: "POST Menu", wantErr: domain.ErrMalformedPayload},
		{line: "REQUEST", wantErr: domain.ErrUnknownCommand},
		{line: "GET Menu", wantErr: domain.ErrUnknownCommand},
		{line: "", wantErr: domain.ErrUnknownCommand},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "REQUEST Stats", Command{Verb: VerbRequest, Resource: "Stats"}.String())
	assert.Equal(t, "POST Stock (2 bytes)", Command{Verb: VerbPost, Resource: "Stock", Payload: []byte("[]")}.String())
}
