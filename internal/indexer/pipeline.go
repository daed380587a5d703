package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sermon-rag/internal/contextutil"
	"sermon-rag/internal/storage"
	"sermon-rag/internal/throttle"
	"sermon-rag/internal/vectorstore"
)

// Pipeline ingests documents: chunk, embed and store, one chunk at a time.
type Pipeline struct {
	chunkStore storage.ChunkStore
	embedder   Embedder
	chunker    *Chunker
	mirror     vectorstore.VectorStore // optional
	opts       Options
	now        func() time.Time
	locks      documentLocks
}

// NewPipeline creates a new ingestion pipeline. mirror may be nil.
func NewPipeline(
	chunkStore storage.ChunkStore,
	embedder Embedder,
	chunker *Chunker,
	mirror vectorstore.VectorStore,
	opts Options,
) *Pipeline {
	if chunker == nil {
		chunker = NewChunker()
	}
	return &Pipeline{
		chunkStore: chunkStore,
		embedder:   embedder,
		chunker:    chunker,
		mirror:     mirror,
		opts:       opts.withDefaults(),
		now:        time.Now,
	}
}

// ChunkID builds the id of the chunk at 1-based position within a document.
func ChunkID(documentID string, position int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, position)
}

// loopState tracks the embed-and-store loop.
type loopState struct {
	total     int
	attempted int
	stored    int
	failed    int
	timedOut  bool
	lastErr   error
}

// IngestDocument replaces every stored chunk of in.DocumentID with chunks of in.Text.
//
// Per-chunk failures are skipped. The call fails when the document is too small,
// when nothing could be chunked or stored, when failures pile up before any chunk
// succeeds, or when more than half of the chunks failed. Errors are *IngestionError.
func (p *Pipeline) IngestDocument(ctx context.Context, in IngestInput) (IngestResult, error) {
	logger := contextutil.LoggerFromContext(ctx).With("document_id", in.DocumentID, "owner_id", in.OwnerID)
	start := p.now()

	fail := func(phase Phase, st loopState, err error) (IngestResult, error) {
		ierr := &IngestionError{
			Phase:        phase,
			DocumentID:   in.DocumentID,
			Total:        st.total,
			Attempted:    st.attempted,
			Stored:       st.stored,
			Failed:       st.failed,
			Elapsed:      p.now().Sub(start),
			LastChunkErr: st.lastErr,
			Err:          err,
		}
		logger.WarnContext(ctx, "ingestion failed", "phase", phase, "error", err,
			"stored", st.stored, "failed", st.failed, "total", st.total)
		return IngestResult{}, ierr
	}

	// validate
	cleaned := CleanText(in.Text)
	if n := runeLen(cleaned); n < MinSplitLength {
		return fail(PhaseValidate, loopState{}, fmt.Errorf("%w: %d characters, need %d", ErrDocumentTooSmall, n, MinSplitLength))
	}
	if in.DocumentID == "" {
		return fail(PhaseValidate, loopState{}, errors.New("document id is required"))
	}

	// concurrent re-ingestions of one document would interleave purge and insert
	unlock := p.locks.lock(in.DocumentID)
	defer unlock()

	// purge
	if err := p.purge(ctx, in.DocumentID); err != nil {
		return fail(PhasePurge, loopState{}, err)
	}

	// chunk
	var chunks []string
	for chunk := range p.chunker.Chunks(cleaned) {
		chunks = append(chunks, chunk)
	}
	if len(chunks) == 0 {
		return fail(PhaseChunk, loopState{}, ErrChunkingProducedNothing)
	}

	// embed and store
	st := loopState{total: len(chunks)}
	deadline := start.Add(p.opts.Budget)
	queue := throttle.New(p.opts.Throttle)

	for i, text := range chunks {
		if p.now().After(deadline) || ctx.Err() != nil {
			st.timedOut = true
			logger.WarnContext(ctx, "ingestion budget exhausted", "processed", st.attempted, "total", st.total)
			break
		}

		position := i + 1
		st.attempted++
		err := queue.Do(ctx, func(ctx context.Context) error {
			return p.storeChunk(ctx, in, position, text)
		})
		if err != nil {
			st.failed++
			st.lastErr = err
			logger.WarnContext(ctx, "chunk failed", "position", position, "error", err)

			if st.stored == 0 && st.failed > p.opts.MaxFailuresWithoutSuccess {
				return fail(PhaseEmbed, st, ErrTooManyConsecutiveFailures)
			}
			continue
		}
		st.stored++
	}

	// finalize
	if st.stored == 0 {
		if ctx.Err() != nil {
			return fail(PhaseFinalize, st, fmt.Errorf("%w: %w", ErrIngestionFailed, ctx.Err()))
		}
		return fail(PhaseFinalize, st, ErrIngestionFailed)
	}
	if float64(st.failed)/float64(st.total) > p.opts.DegradedRatio {
		return fail(PhaseFinalize, st, ErrIngestionDegraded)
	}

	result := IngestResult{
		DocumentID:      in.DocumentID,
		ChunksTotal:     st.total,
		ChunksAttempted: st.attempted,
		ChunksStored:    st.stored,
		ChunksFailed:    st.failed,
		ElapsedMs:       p.now().Sub(start).Milliseconds(),
		TimedOut:        st.timedOut,
		ChunkStats:      computeLengthStats(chunks),
	}
	logger.InfoContext(ctx, "ingested document",
		"stored", result.ChunksStored, "failed", result.ChunksFailed,
		"total", result.ChunksTotal, "elapsed_ms", result.ElapsedMs, "timed_out", result.TimedOut)
	return result, nil
}

// purge removes any chunks left from a previous ingestion of the document.
func (p *Pipeline) purge(ctx context.Context, documentID string) error {
	logger := contextutil.LoggerFromContext(ctx)

	existing, err := p.chunkStore.FindByDocumentID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to look up existing chunks: %w", err)
	}
	if len(existing) == 0 {
		return nil
	}

	if err := p.chunkStore.DeleteByDocumentID(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete existing chunks: %w", err)
	}

	if p.mirror != nil {
		if err := p.mirror.DeleteByDocument(ctx, p.opts.Collection, documentID); err != nil {
			// the mirror is rebuilt by the upserts that follow
			logger.WarnContext(ctx, "failed to purge mirrored chunks", "document_id", documentID, "error", err)
		}
	}

	logger.InfoContext(ctx, "purged previous chunks", "document_id", documentID, "count", len(existing))
	return nil
}

// storeChunk embeds one chunk and persists it.
func (p *Pipeline) storeChunk(ctx context.Context, in IngestInput, position int, text string) error {
	vec, err := p.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed chunk %d: %w", position, err)
	}

	record := &storage.ChunkRecord{
		ID:         ChunkID(in.DocumentID, position),
		DocumentID: in.DocumentID,
		OwnerID:    in.OwnerID,
		Text:       text,
		Embedding:  vec,
		SourceURL:  in.SourceURL,
		Position:   position,
		CreatedAt:  p.now(),
	}
	if err := p.chunkStore.Insert(ctx, record); err != nil {
		return fmt.Errorf("store chunk %d: %w", position, err)
	}

	if p.mirror != nil {
		point := vectorstore.Point{
			ID:  record.ID,
			Vec: vec,
			Meta: map[string]any{
				vectorstore.KeyDocumentID: in.DocumentID,
				vectorstore.KeyOwnerID:    in.OwnerID,
				vectorstore.KeyPosition:   position,
				vectorstore.KeySourceURL:  in.SourceURL,
			},
		}
		if err := p.mirror.Upsert(ctx, p.opts.Collection, []vectorstore.Point{point}); err != nil {
			contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to mirror chunk", "chunk_id", record.ID, "error", err)
		}
	}
	return nil
}
