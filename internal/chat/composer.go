// Package chat assembles final answers: small-talk short-circuits, the
// similarity-threshold policy, and the two response modes.
package chat

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/issdc/missionchat/internal/retriever"
	"github.com/issdc/missionchat/internal/session"
	"github.com/issdc/missionchat/internal/summarize"
	"github.com/issdc/missionchat/pkg/utils"
)

// Reply is a composed answer with the context it was drawn from.
type Reply struct {
	Response string
	Context  string
}

// Composer implements the two response modes over one retrieval pipeline.
// Answer is threshold-gated and stateless; Converse always summarizes and
// carries per-session memory.
type Composer struct {
	retriever     *retriever.Retriever
	sessions      session.Store
	summarizer    *summarize.Summarizer
	smallTalk     *SmallTalk
	threshold     float64
	topK          int
	contextBudget int
	noMatchReply  string
	logger        *zap.Logger
}

// NewComposer creates a composer. threshold gates direct-match answers;
// contextBudget caps the per-turn retrieved context stored in session memory.
func NewComposer(
	r *retriever.Retriever,
	sessions session.Store,
	summarizer *summarize.Summarizer,
	smallTalk *SmallTalk,
	threshold float64,
	topK int,
	contextBudget int,
	noMatchReply string,
	logger *zap.Logger,
) *Composer {
	if topK < 1 {
		topK = 1
	}
	return &Composer{
		retriever:     r,
		sessions:      sessions,
		summarizer:    summarizer,
		smallTalk:     smallTalk,
		threshold:     threshold,
		topK:          topK,
		contextBudget: contextBudget,
		noMatchReply:  noMatchReply,
		logger:        logger,
	}
}

// Answer is the direct-match mode: return the best-matching corpus record
// verbatim when its similarity clears the threshold, the fixed fallback
// otherwise. No session state is read or written, so repeated calls with the
// same query and index give identical replies.
func (c *Composer) Answer(ctx context.Context, message string) (Reply, error) {
	if reply, ok := c.smallTalk.Match(message); ok {
		return Reply{Response: reply, Context: c.smallTalk.SentinelContext()}, nil
	}

	matches, err := c.retriever.Retrieve(ctx, message, 1)
	if err != nil {
		return Reply{}, err
	}
	if len(matches) == 0 || matches[0].Similarity < c.threshold {
		if len(matches) > 0 {
			c.logger.Debug("match below threshold",
				zap.Float64("similarity", matches[0].Similarity),
				zap.Float64("threshold", c.threshold),
			)
		}
		return Reply{Response: c.noMatchReply, Context: c.smallTalk.SentinelContext()}, nil
	}
	return Reply{Response: matches[0].Details, Context: matches[0].Details}, nil
}

// Converse is the conversational mode: retrieve unconditionally, fold the
// result into session memory, and summarize against the previous turn.
// Session memory is updated before the gateway call, so the next turn sees
// this turn's context even when summarization fails.
func (c *Composer) Converse(ctx context.Context, message, sessionID string) (Reply, error) {
	if reply, ok := c.smallTalk.Match(message); ok {
		return Reply{Response: reply, Context: c.smallTalk.SentinelContext()}, nil
	}

	matches, err := c.retriever.Retrieve(ctx, message, c.topK)
	if err != nil {
		return Reply{}, err
	}
	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = m.Details
	}
	combined := utils.Clip(strings.TrimSpace(strings.Join(parts, "\n\n")), c.contextBudget)

	previous, err := c.sessions.GetOrCreate(sessionID)
	if err != nil {
		return Reply{}, err
	}
	if err := c.sessions.Update(sessionID, combined, message); err != nil {
		return Reply{}, err
	}

	answer := c.summarizer.Summarize(ctx, combined, message, previous)
	if summarize.IsWarning(answer) {
		c.logger.Warn("summarization gateway failed",
			zap.String("session_id", sessionID),
			zap.String("answer", utils.Truncate(answer, 200)),
		)
	}
	return Reply{Response: answer, Context: combined}, nil
}
