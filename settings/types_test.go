package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestNormalizePersonality(t *testing.T) {
	tests := []struct {
		in   string
		want Personality
	}{
		{"friendly", PersonalityFriendly},
		{"pragmatic", PersonalityPragmatic},
		{"  pragmatic\n", PersonalityPragmatic},
		{"", PersonalityFriendly},
		{"Pragmatic", PersonalityFriendly},
		{"sarcastic", PersonalityFriendly},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePersonality(tt.in))
		})
	}
}

// Any input other than the two recognized values resolves to friendly.
func TestNormalizePersonality_Property(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		in := rapid.String().Draw(r, "input")
		got := NormalizePersonality(in)

		switch in {
		case "pragmatic":
			assert.Equal(r, PersonalityPragmatic, got)
		case "friendly":
			assert.Equal(r, PersonalityFriendly, got)
		default:
			assert.Contains(r, []Personality{PersonalityFriendly, PersonalityPragmatic}, got)
		}
		// Normalizing is idempotent.
		assert.Equal(r, got, NormalizePersonality(string(got)))
	})
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "", NormalizeToken(""))
	assert.Equal(t, "", NormalizeToken(" \t\n "))
	assert.Equal(t, "abc", NormalizeToken("  abc "))
}

func TestNormalizeToken_Property(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		blank := rapid.StringMatching(`[ \t\r\n]*`).Draw(r, "blank")
		assert.Equal(r, "", NormalizeToken(blank))

		token := rapid.StringMatching(`[A-Za-z0-9_\-]{1,40}`).Draw(r, "token")
		assert.Equal(r, token, NormalizeToken(blank+token+blank))
	})
}

func TestAppSettings_Normalized(t *testing.T) {
	s := AppSettings{Personality: "weird", BackendMode: "satellite"}.Normalized()
	assert.Equal(t, PersonalityFriendly, s.Personality)
	assert.Equal(t, BackendLocal, s.BackendMode)

	s = AppSettings{Personality: "pragmatic", BackendMode: BackendRemote}.Normalized()
	assert.Equal(t, PersonalityPragmatic, s.Personality)
	assert.Equal(t, BackendRemote, s.BackendMode)
}

func TestDefault(t *testing.T) {
	d := Default()
	assert.Equal(t, PersonalityFriendly, d.Personality)
	assert.Equal(t, BackendLocal, d.BackendMode)
	assert.Equal(t, DefaultRemoteBackendHost, d.RemoteBackendHost)
	assert.Empty(t, d.RemoteBackendToken)
	assert.Equal(t, d, d.Normalized())
}
