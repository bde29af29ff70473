package tools

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCargoMessages_CollectsArtifactsAndErrors(t *testing.T) {
	t.Parallel()

	stream := strings.Join([]string{
		`{"reason":"compiler-artifact","filenames":["target/release/app"]}`,
		`{"reason":"compiler-message","message":{"level":"warning","rendered":"unused variable"}}`,
		`{"reason":"compiler-message","message":{"level":"error","rendered":"mismatched types"}}`,
		`not json at all`,
		``,
	}, "\n")

	result := parseCargoMessages(strings.NewReader(stream))

	assert.Equal(t, []string{"target/release/app"}, result.Artifacts)
	assert.Equal(t, []string{"mismatched types"}, result.Diagnostics)
}

func TestParseCargoMessages_EmptyStreamYieldsEmptyResult(t *testing.T) {
	t.Parallel()

	result := parseCargoMessages(strings.NewReader(""))

	assert.Empty(t, result.Artifacts)
	assert.Empty(t, result.Diagnostics)
}
