package retrieval

import (
	"sort"

	"github.com/google/uuid"
)

// Fuse merges vector and lexical hits by chunk id and ranks them by
//
//	combined = vector*(1-weight) + lexical*weight
//
// A chunk missing from one side scores 0 there. When both sides return the
// same chunk the vector copy of its content wins. Ties keep first-seen order:
// vector list order, then lexical-only chunks in lexical order.
func Fuse(vector, lexical []Hit, weight float64, limit int) []Result {
	weight = clamp01(weight)
	if limit <= 0 {
		return []Result{}
	}

	order := make([]uuid.UUID, 0, len(vector)+len(lexical))
	merged := make(map[uuid.UUID]*Result, len(vector)+len(lexical))

	for _, h := range vector {
		if _, seen := merged[h.ChunkID]; seen {
			continue
		}
		r := resultFromHit(h)
		r.VectorScore = clamp01(h.Score)
		merged[h.ChunkID] = &r
		order = append(order, h.ChunkID)
	}
	for _, h := range lexical {
		if r, ok := merged[h.ChunkID]; ok {
			if r.LexicalScore == 0 {
				r.LexicalScore = clamp01(h.Score)
			}
			continue
		}
		r := resultFromHit(h)
		r.LexicalScore = clamp01(h.Score)
		merged[h.ChunkID] = &r
		order = append(order, h.ChunkID)
	}

	out := make([]Result, 0, len(order))
	for _, id := range order {
		r := merged[id]
		r.Score = clamp01(r.VectorScore*(1-weight) + r.LexicalScore*weight)
		out = append(out, *r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// singleSide ranks hits from one method on their own. The input order is
// already the storage order, so ties stay where storage put them.
func singleSide(hits []Hit, vectorSide bool, limit int) []Result {
	out := make([]Result, 0, len(hits))
	seen := make(map[uuid.UUID]struct{}, len(hits))
	for _, h := range hits {
		if _, dup := seen[h.ChunkID]; dup {
			continue
		}
		seen[h.ChunkID] = struct{}{}
		r := resultFromHit(h)
		s := clamp01(h.Score)
		r.Score = s
		if vectorSide {
			r.VectorScore = s
		} else {
			r.LexicalScore = s
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func resultFromHit(h Hit) Result {
	return Result{
		ChunkID:        h.ChunkID,
		DocumentID:     h.DocumentID,
		Content:        h.Content,
		Metadata:       h.Metadata,
		DocumentTitle:  h.DocumentTitle,
		DocumentSource: h.DocumentSource,
	}
}
