package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/thesis-checker/constants"
	"github.com/joseph-ayodele/thesis-checker/internal/rules"
)

func TestCheckIdentity(t *testing.T) {
	c := rules.Default()

	t.Run("exact strings pass", func(t *testing.T) {
		front := "UNIVERZA V LJUBLJANI\nFAKULTETA ZA DRUŽBENE VEDE\n\nJana Novak\nMagistrska naloga"
		assert.Empty(t, c.CheckIdentity(front))
	})

	t.Run("english university name", func(t *testing.T) {
		front := "University of Ljubljana\nFAKULTETA ZA DRUŽBENE VEDE\nMaster thesis"
		got := c.CheckIdentity(front)
		require.Len(t, got, 1)
		assert.Equal(t, constants.SeverityCritical, got[0].Severity)
		assert.Equal(t, "identity", got[0].Category)
		assert.Contains(t, got[0].Message, "University name must be 'UNIVERZA V LJUBLJANI'")
		assert.Contains(t, got[0].Message, `found "University of Ljubljana"`)
		assert.NotEmpty(t, got[0].FixInstruction)
	})

	t.Run("wrong case is quoted", func(t *testing.T) {
		front := "UNIVERZA V LJUBLJANI\n  Fakulteta za družbene vede  \n"
		got := c.CheckIdentity(front)
		require.Len(t, got, 1)
		assert.Contains(t, got[0].Message, `found "Fakulteta za družbene vede"`)
	})

	t.Run("both missing", func(t *testing.T) {
		got := c.CheckIdentity("A thesis about something")
		require.Len(t, got, 2)
		for _, f := range got {
			assert.Contains(t, f.Message, "not found on the front page")
			assert.Equal(t, 0, f.PageNumber)
		}
	})
}
