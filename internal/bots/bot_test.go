package bots

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlatformFor(t *testing.T) {
	cases := map[string]string{
		"https://apply.workable.com/acme/j/ABC123/":       "workable",
		"https://jobs.workable.com/view/xyz":              "workable",
		"https://boards.greenhouse.io/acme/jobs/4001":     "greenhouse",
		"https://job-boards.greenhouse.io/acme/jobs/4001": "greenhouse",
		"https://jobs.lever.co/acme/uuid-here":            "lever",
		"https://jobs.lever.co/acme/uuid-here/apply":      "lever",
		"https://careers.example.com/apply":               "",
		"not a url ::":                                    "",
	}
	for url, want := range cases {
		assert.Equal(t, want, PlatformFor(url), url)
	}
}

func TestRegistryLookup(t *testing.T) {
	deps := Deps{Log: slog.New(slog.NewTextHandler(os.Stderr, nil))}
	registry := NewRegistry(deps)

	bot, name, ok := registry.Lookup("https://apply.workable.com/acme/j/ABC123/")
	require.True(t, ok)
	assert.Equal(t, "workable", name)
	assert.Equal(t, "workable", bot.Name())

	_, _, ok = registry.Lookup("https://careers.example.com/apply")
	assert.False(t, ok)
}

func TestFormatPhone(t *testing.T) {
	assert.Equal(t, "+442071234567", FormatPhone("020 7123 4567", "United Kingdom"))
	assert.Equal(t, "+15551234567", FormatPhone("555 123 4567", "US"))
	assert.Equal(t, "+36201234567", FormatPhone("+36 20 123 4567", "Hungary"))
	assert.Equal(t, "201234567", FormatPhone("20-123-4567", "Hungary"))
	assert.Equal(t, "", FormatPhone("", "UK"))
	assert.Equal(t, "", FormatPhone("ext.", "UK"))
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "years of experience", normalizeText("  Years   of\nExperience "))
	assert.Equal(t, "", normalizeText("   "))
}

func TestNormalizeTextFoldsDiacritics(t *testing.T) {
	assert.Equal(t, "anos de experiencia", normalizeText("Años de experiencia"))
	assert.Equal(t, "pretensao salarial", normalizeText("Pretensão salarial"))
	assert.Equal(t, "prenom", normalizeText("Prénom"))
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "Why us?", firstLine("\n\nWhy us?\nOptional hint text"))
	assert.Equal(t, "", firstLine("\n \n"))
}

func TestParseIntAttr(t *testing.T) {
	assert.Equal(t, 255, parseInt("255"))
	assert.Equal(t, 0, parseInt("12px"))
	assert.Equal(t, 0, parseInt(""))
}
