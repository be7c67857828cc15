package iqdb

import (
	"container/heap"
	"context"
	"fmt"
	"time"

	"github.com/honooru/iqdb/haar"
)

// Match is a single query result: a postID and its similarity score. The
// reference implementation scales scores into roughly [0, 100], with
// exact duplicates landing near 100; Match.Score preserves that scale.
type Match struct {
	PostID string
	Score  float64
}

// matchHeap is a max-heap of Match ordered by raw (unscaled) Score, where
// a lower raw score is more similar. It keeps only the numres most
// similar matches while scanning every candidate once, the way the
// reference's std::priority_queue (largest on top, popped when it
// overflows numres) does.
type matchHeap []Match

func (h matchHeap) Len() int            { return len(h) }
func (h matchHeap) Less(i, j int) bool  { return h[i].Score > h[j].Score }
func (h matchHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *matchHeap) Push(x interface{}) { *h = append(*h, x.(Match)) }
func (h *matchHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// QueryFromSignature scores every indexed, non-deleted image against
// signature and returns up to numres matches, highest score first.
//
// Mirrors IQDB::queryFromSignature: a luminance term computed against
// every image, then a per-bucket adjustment for every coefficient
// signature shares with an indexed image, normalized by the sum of
// bucket weights so the top score for an exact signature match lands
// near 100.
func (eng *Engine) QueryFromSignature(ctx context.Context, signature haar.Signature, numres int) ([]Match, error) {
	if numres <= 0 {
		return nil, fmt.Errorf("%w: numres must be positive", ErrParam)
	}

	start := time.Now()
	matches, err := eng.queryFromSignature(signature, numres)
	eng.opts.metricsCollector.RecordQuery(signature.NumColors(), len(matches), time.Since(start), err)
	eng.opts.logger.LogQuery(ctx, signature.NumColors(), numres, len(matches), err)
	return matches, err
}

func (eng *Engine) queryFromSignature(signature haar.Signature, numres int) ([]Match, error) {
	eng.mu.RLock()
	defer eng.mu.RUnlock()

	numColors := signature.NumColors()
	scores := make(map[string]float64, eng.info.Len())

	for postID, info := range eng.info.All() {
		var s float64
		for c := 0; c < numColors; c++ {
			s += float64(Weights[0][c]) * absF(float64(info.AvgL[c])-signature.AvgLF[c])
		}
		scores[postID] = s
	}

	var scale float64
	for c := 0; c < numColors; c++ {
		for _, coef := range signature.Sig[c] {
			ids := eng.buckets.At(c, coef)
			if len(ids) == 0 {
				continue
			}

			w := bin(absInt(int(coef)))
			weight := float64(Weights[w][c])
			scale -= weight

			for _, id := range ids {
				postID, ok := eng.registry.Lookup(id)
				if !ok {
					continue
				}
				scores[postID] -= weight
			}
		}
	}

	if scale != 0 {
		scale = 1.0 / scale
	}

	h := &matchHeap{}
	heap.Init(h)
	for postID, score := range scores {
		info, ok := eng.info.Get(postID)
		if !ok || info.Deleted {
			continue
		}
		heap.Push(h, Match{PostID: postID, Score: score})
		if h.Len() > numres {
			heap.Pop(h)
		}
	}

	out := make([]Match, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		m := heap.Pop(h).(Match)
		m.Score = m.Score * 100 * scale
		out[i] = m
	}

	return out, nil
}

// QueryFromBlob runs the full from_file_content pipeline on data (decode,
// resize, extract signature) and then QueryFromSignature.
func (eng *Engine) QueryFromBlob(ctx context.Context, data []byte, numres int) ([]Match, error) {
	eng.mu.RLock()
	dec := eng.opts.decoder
	eng.mu.RUnlock()

	sig, err := haar.ExtractFromBytes(data, dec)
	if err != nil {
		wrapped := translateError(err)
		eng.opts.logger.LogQuery(ctx, 0, numres, 0, wrapped)
		return nil, wrapped
	}
	return eng.QueryFromSignature(ctx, sig, numres)
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
