package chat

import (
	"github.com/issdc/missionchat/internal/config"
	"github.com/issdc/missionchat/internal/corpus"
	"github.com/issdc/missionchat/pkg/utils"
)

// SmallTalk detects greeting and farewell turns. Matching is exact on the
// lowercased, trimmed query against the configured phrase sets, never
// substring matching: "hello there" is not small talk.
type SmallTalk struct {
	greetings       map[string]string // normalized phrase -> reply
	farewells       map[string]struct{}
	greetingReply   string
	farewellReply   string
	sentinelContext string
}

// NewSmallTalk builds the detector from config. Per-phrase greeting replies
// from the optional custom responses file override the default greeting reply.
func NewSmallTalk(cfg config.SmallTalkConfig, custom *corpus.CustomReplies) *SmallTalk {
	st := &SmallTalk{
		greetings:       make(map[string]string, len(cfg.Greetings)),
		farewells:       make(map[string]struct{}, len(cfg.Farewells)),
		greetingReply:   cfg.GreetingReply,
		farewellReply:   cfg.FarewellReply,
		sentinelContext: cfg.SentinelContext,
	}
	for _, g := range cfg.Greetings {
		st.greetings[utils.NormalizeQuery(g)] = ""
	}
	if custom != nil {
		for phrase, reply := range custom.Greetings {
			key := utils.NormalizeQuery(phrase)
			if _, ok := st.greetings[key]; ok {
				st.greetings[key] = reply
			}
		}
	}
	for _, f := range cfg.Farewells {
		st.farewells[utils.NormalizeQuery(f)] = struct{}{}
	}
	return st
}

// Match returns the canned reply for query if it is small talk.
func (st *SmallTalk) Match(query string) (reply string, ok bool) {
	normalized := utils.NormalizeQuery(query)
	if override, found := st.greetings[normalized]; found {
		if override != "" {
			return override, true
		}
		return st.greetingReply, true
	}
	if _, found := st.farewells[normalized]; found {
		return st.farewellReply, true
	}
	return "", false
}

// SentinelContext is the context value reported for small-talk replies.
func (st *SmallTalk) SentinelContext() string {
	return st.sentinelContext
}
