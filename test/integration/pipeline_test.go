package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/issdc/missionchat/internal/chat"
	"github.com/issdc/missionchat/internal/config"
	"github.com/issdc/missionchat/internal/corpus"
	"github.com/issdc/missionchat/internal/embedding"
	"github.com/issdc/missionchat/internal/retriever"
	"github.com/issdc/missionchat/internal/session"
	"github.com/issdc/missionchat/internal/summarize"
	"github.com/issdc/missionchat/internal/vector"
)

var missions = []string{
	"Chandrayaan-3 is a lunar mission that landed near the south pole of the Moon.",
	"Mangalyaan, the Mars Orbiter Mission, was India's first interplanetary probe.",
	"Aditya-L1 studies the Sun from the first Lagrange point.",
}

// writeArtifacts builds the corpus file and index artifact on disk the way the
// offline build step would, then loads them back through the startup path.
func writeArtifacts(t *testing.T, embedder embedding.Embedder, details []string) (corpusPath, indexPath string) {
	t.Helper()
	dir := t.TempDir()
	corpusPath = filepath.Join(dir, "mission_data.json")
	indexPath = filepath.Join(dir, "missions.index")

	type rec struct {
		Details string `json:"details"`
	}
	recs := make([]rec, len(details))
	for i, d := range details {
		recs[i] = rec{Details: d}
	}
	data, err := json.Marshal(recs)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(corpusPath, data, 0600))

	ctx := context.Background()
	vectors := make([][]float32, len(details))
	for i, d := range details {
		vectors[i], err = embedder.Embed(ctx, d)
		require.NoError(t, err)
	}
	idx, err := vector.NewFlatIndex(embedder.Dimensions(), vectors)
	require.NoError(t, err)
	require.NoError(t, idx.Save(indexPath))
	return corpusPath, indexPath
}

func TestPipeline_EndToEnd(t *testing.T) {
	embedder := embedding.NewMockEmbedder(64)
	corpusPath, indexPath := writeArtifacts(t, embedder, missions)

	store, err := corpus.Load(corpusPath)
	require.NoError(t, err)
	idx, err := vector.LoadFlatIndex(indexPath, embedder.Dimensions())
	require.NoError(t, err)
	snap, err := retriever.NewSnapshot(store, idx)
	require.NoError(t, err)

	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "summarized"})
	}))
	defer gateway.Close()

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	sessions := session.NewMemoryStore()
	defer sessions.Close()

	composer := chat.NewComposer(
		retriever.New(embedder, snap),
		sessions,
		summarize.NewSummarizer(summarize.NewOllamaClient(gateway.URL, "phi", time.Duration(cfg.Summarize.TimeoutSeconds)*time.Second), cfg.Memory.BlendBudget),
		chat.NewSmallTalk(cfg.SmallTalk, nil),
		cfg.Retrieval.Threshold(),
		cfg.Retrieval.TopK,
		cfg.Memory.ContextBudget,
		cfg.SmallTalk.NoMatchReply,
		zap.NewNop(),
	)
	ctx := context.Background()

	// Direct match on a known record.
	reply, err := composer.Answer(ctx, missions[1])
	require.NoError(t, err)
	require.Equal(t, missions[1], reply.Response)
	require.Equal(t, reply.Response, reply.Context)

	// Off-corpus query falls back.
	reply, err = composer.Answer(ctx, "how tall is the eiffel tower")
	require.NoError(t, err)
	require.Equal(t, cfg.SmallTalk.NoMatchReply, reply.Response)
	require.Equal(t, "N/A", reply.Context)

	// Conversational turn updates memory and summarizes.
	reply, err = composer.Converse(ctx, missions[2], "visitor")
	require.NoError(t, err)
	require.Equal(t, "summarized", reply.Response)
	require.Equal(t, missions[2], reply.Context)

	mem, err := sessions.GetOrCreate("visitor")
	require.NoError(t, err)
	require.Equal(t, missions[2], mem.LastContext)
}

func TestPipeline_MisalignedArtifactsRejected(t *testing.T) {
	embedder := embedding.NewMockEmbedder(64)
	corpusPath, indexPath := writeArtifacts(t, embedder, missions)

	// Rewrite the corpus with one record removed: the index now has more
	// rows than the corpus and startup must refuse the pair.
	data, err := json.Marshal([]map[string]string{{"details": missions[0]}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(corpusPath, data, 0600))

	store, err := corpus.Load(corpusPath)
	require.NoError(t, err)
	idx, err := vector.LoadFlatIndex(indexPath, embedder.Dimensions())
	require.NoError(t, err)
	_, err = retriever.NewSnapshot(store, idx)
	require.Error(t, err)
}
