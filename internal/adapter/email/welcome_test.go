package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterestText(t *testing.T) {
	tests := []struct {
		name      string
		interests []string
		want      string
	}{
		{"single", []string{"dating"}, "dating"},
		{"pair", []string{"hiring_recruiter", "cofounder"}, "hiring/recruiting and co-founder matching"},
		{"three", []string{"hiring_jobseeker", "mastermind", "other"}, "job seeking, mastermind groups, and exploring Authentyc"},
		{"unknown only", []string{"astrology"}, "our platform"},
		{"empty", nil, "our platform"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InterestText(tt.interests))
		})
	}
}

func TestRenderWelcome(t *testing.T) {
	w, err := RenderWelcome(42, []string{"dating", "cofounder"})
	require.NoError(t, err)
	assert.Equal(t, "Welcome to Authentyc [#42 on the waitlist]", w.Subject)
	assert.Contains(t, w.HTML, "<h2")
	assert.Contains(t, w.HTML, "Welcome to Authentyc [#42 on the waitlist]</h2>")
	assert.Contains(t, w.HTML, "You're officially on the Authentyc waitlist (#42).")
	assert.Contains(t, w.HTML, "first access to dating and co-founder matching")
	assert.Contains(t, w.HTML, "https://authentyc.ai/privacy")
}
