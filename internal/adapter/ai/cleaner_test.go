package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/authentyc-landing/internal/domain"
)

func TestCleanJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced json", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", `Sure! Here you go: {"a":"x}y"} hope that helps`, `{"a":"x}y"}`},
		{"trailing comma", `{"a":[1,2,],}`, `{"a":[1,2]}`},
		{"apostrophes kept", `{"a":"it's fine"}`, `{"a":"it's fine"}`},
		{"escaped quote", `note {"a":"say \"}\" ok"} end`, `{"a":"say \"}\" ok"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CleanJSON(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestCleanJSON_Rejects(t *testing.T) {
	for _, in := range []string{"", "no json here", `[1,2,3]`, `{"a":`} {
		_, err := CleanJSON(in)
		assert.ErrorIs(t, err, domain.ErrSchemaInvalid, in)
	}
}
