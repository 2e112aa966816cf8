package services

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/paperag/internal/core/domain"
	"github.com/custodia-labs/paperag/internal/core/ports/driving"
	"github.com/custodia-labs/paperag/internal/logger"
)

// Ensure DialogueService implements the interface.
var _ driving.DialogueManager = (*DialogueService)(nil)

// dialogue is the conversation state for one paper.
type dialogue struct {
	messages    []domain.Message
	summary     string
	totalChars  int
	compactions int
}

// DialogueService keeps per-paper conversation context. When a
// paper's transcript grows past the limit, the oldest half of its
// messages is rendered into a rolling summary block and dropped from
// the live list. Compaction is one-way; the summary only grows.
type DialogueService struct {
	mu        sync.Mutex
	maxChars  int
	dialogues map[string]*dialogue
}

// NewDialogueService creates a dialogue manager. A maxChars of 0 uses
// domain.DefaultMaxDialogueChars.
func NewDialogueService(maxChars int) *DialogueService {
	if maxChars <= 0 {
		maxChars = domain.DefaultMaxDialogueChars
	}
	return &DialogueService{
		maxChars:  maxChars,
		dialogues: make(map[string]*dialogue),
	}
}

// Add appends a turn to the paper's dialogue, compacting when the
// live transcript exceeds the limit.
func (s *DialogueService) Add(paperID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.dialogues[paperID]
	if d == nil {
		d = &dialogue{}
		s.dialogues[paperID] = d
	}

	d.messages = append(d.messages, domain.Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	d.totalChars += len(content)

	if d.totalChars > s.maxChars {
		s.compact(paperID, d)
	}
}

// Context returns the prompt context for a paper: the summary block,
// if any, followed by the live transcript.
func (s *DialogueService) Context(paperID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.dialogues[paperID]
	if d == nil {
		return ""
	}

	var parts []string
	if d.summary != "" {
		parts = append(parts, d.summary, "")
	}
	if len(d.messages) > 0 {
		parts = append(parts, "Current dialogue:")
		parts = append(parts, renderMessages(d.messages))
	}
	return strings.Join(parts, "\n")
}

// Stats describes the paper's dialogue state.
func (s *DialogueService) Stats(paperID string) domain.DialogueStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.dialogues[paperID]
	if d == nil {
		return domain.DialogueStats{}
	}
	return domain.DialogueStats{
		Messages:     len(d.messages),
		TotalChars:   d.totalChars,
		SummaryChars: len(d.summary),
		Compactions:  d.compactions,
	}
}

// Clear discards the paper's dialogue entirely.
func (s *DialogueService) Clear(paperID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.dialogues, paperID)
	logger.Debug("Dialogue for %s cleared", paperID)
}

// compact folds the oldest half of the live messages into the summary
// block. Caller must hold mu.
func (s *DialogueService) compact(paperID string, d *dialogue) {
	if len(d.messages) < 2 {
		return
	}

	half := len(d.messages) / 2
	rendered := renderMessages(d.messages[:half])

	if d.summary != "" {
		d.summary += "\n\nPrevious dialogue:\n" + rendered
	} else {
		d.summary = "Previous dialogue:\n" + rendered
	}

	d.messages = append([]domain.Message(nil), d.messages[half:]...)

	d.totalChars = 0
	for _, m := range d.messages {
		d.totalChars += len(m.Content)
	}
	d.compactions++

	logger.Debug("Compacted %d messages for %s, %d remain", half, paperID, len(d.messages))
}

// renderMessages formats messages for prompt context.
func renderMessages(messages []domain.Message) string {
	lines := make([]string, len(messages))
	for i, m := range messages {
		role := m.Role
		if role != "" {
			role = strings.ToUpper(role[:1]) + role[1:]
		}
		lines[i] = fmt.Sprintf("%s: %s", role, m.Content)
	}
	return strings.Join(lines, "\n")
}
