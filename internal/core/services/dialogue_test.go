package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/paperag/internal/core/domain"
)

func TestDialogue_AddAndContext(t *testing.T) {
	svc := NewDialogueService(0)

	svc.Add("p1", domain.RoleUser, "What is the main result?")
	svc.Add("p1", domain.RoleAssistant, "The main result is X.")

	ctx := svc.Context("p1")
	assert.Contains(t, ctx, "Current dialogue:")
	assert.Contains(t, ctx, "User: What is the main result?")
	assert.Contains(t, ctx, "Assistant: The main result is X.")
	assert.NotContains(t, ctx, "Previous dialogue:")
}

func TestDialogue_CompactionFoldsOldestHalf(t *testing.T) {
	svc := NewDialogueService(100)

	turns := []string{
		"first question about methods",
		"first answer with details",
		"second question about results",
		"second answer with more detail text",
	}
	for i, content := range turns {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		svc.Add("p1", role, content)
	}

	stats := svc.Stats("p1")
	assert.Less(t, stats.Messages, len(turns))
	assert.Greater(t, stats.SummaryChars, 0)
	assert.Greater(t, stats.Compactions, 0)

	ctx := svc.Context("p1")
	assert.Contains(t, ctx, "Previous dialogue:")
	// The oldest turn survives only inside the summary block.
	assert.Contains(t, ctx, "first question about methods")
}

func TestDialogue_TotalCharsTracksLiveMessages(t *testing.T) {
	svc := NewDialogueService(1000)

	svc.Add("p1", domain.RoleUser, "abcde")
	svc.Add("p1", domain.RoleAssistant, "xyz")

	stats := svc.Stats("p1")
	assert.Equal(t, 2, stats.Messages)
	assert.Equal(t, 8, stats.TotalChars)
}

func TestDialogue_ContextBounded(t *testing.T) {
	svc := NewDialogueService(domain.DefaultMaxDialogueChars)

	turn := strings.Repeat("q", 120)
	for i := 0; i < 50; i++ {
		svc.Add("p1", domain.RoleUser, turn)
	}

	stats := svc.Stats("p1")
	// Live transcript stays under the limit no matter how many turns
	// were added; overflow lives in the summary block.
	assert.LessOrEqual(t, stats.TotalChars, domain.DefaultMaxDialogueChars+len(turn))
	assert.Greater(t, stats.Compactions, 1)
}

func TestDialogue_PapersAreIndependent(t *testing.T) {
	svc := NewDialogueService(0)

	svc.Add("p1", domain.RoleUser, "about paper one")
	svc.Add("p2", domain.RoleUser, "about paper two")

	assert.Contains(t, svc.Context("p1"), "paper one")
	assert.NotContains(t, svc.Context("p1"), "paper two")
	assert.Equal(t, 1, svc.Stats("p2").Messages)
}

func TestDialogue_Clear(t *testing.T) {
	svc := NewDialogueService(0)

	svc.Add("p1", domain.RoleUser, "hello")
	svc.Clear("p1")

	assert.Empty(t, svc.Context("p1"))
	assert.Equal(t, domain.DialogueStats{}, svc.Stats("p1"))
}
