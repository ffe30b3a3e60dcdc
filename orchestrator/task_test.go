package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidIssueURL(t *testing.T) {
	valid := []string{
		"https://github.com/acme/widgets/issues/42",
		"https://github.com/a/b/issues/1",
	}
	for _, u := range valid {
		assert.True(t, ValidIssueURL(u), u)
	}

	invalid := []string{
		"https://github.com/acme/widgets/pull/42",
		"https://gitlab.com/acme/widgets/issues/42",
		"https://github.com/acme/issues/42",
		"https://github.com/acme/widgets/issues/",
		"https://github.com/acme/widgets/issues/42extra",
		"github.com/acme/widgets/issues/42",
	}
	for _, u := range invalid {
		assert.False(t, ValidIssueURL(u), u)
	}
}

func TestBuildTaskDescription(t *testing.T) {
	got, err := BuildTaskDescription("https://github.com/a/b/issues/1", "prefer small diffs")
	require.NoError(t, err)
	assert.Equal(t, "Implement GitHub issue: https://github.com/a/b/issues/1\n\nAdditional context: prefer small diffs", got)

	got, err = BuildTaskDescription("https://github.com/a/b/issues/1", "")
	require.NoError(t, err)
	assert.Equal(t, "Implement GitHub issue: https://github.com/a/b/issues/1", got)

	got, err = BuildTaskDescription("", "just do it")
	require.NoError(t, err)
	assert.Equal(t, "just do it", got)

	_, err = BuildTaskDescription("", "")
	assert.Error(t, err)
}

func TestStateStringAndTerminal(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "researching", StateResearching.String())
	assert.Equal(t, "done", StateDone.String())
	assert.Equal(t, "failed", StateFailed.String())

	assert.True(t, StateDone.IsTerminal())
	assert.True(t, StateFailed.IsTerminal())
	assert.False(t, StateImplementing.IsTerminal())
}
