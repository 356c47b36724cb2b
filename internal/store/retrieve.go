package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/agenthands/airwatch/internal/route"
	"github.com/agenthands/airwatch/internal/sensor"
	"github.com/agenthands/airwatch/internal/temporal"
)

const (
	priorityKeysPerFamily = 50
	rawKeysPerDate        = 100
	quickProbeKeys        = 6
)

// Retrieve lists, fetches and scores candidates for a query, returning
// the top-K documents (score descending, ties by first-seen order) plus
// the concatenated tagged context for the generative fallback.
//
// Prefix planning narrows the scan: a dated query only walks that date's
// folders, and the requested granularity picks which aggregate families
// are worth listing at all.
func (s *Store) Retrieve(ctx context.Context, query string) ([]*sensor.Document, string, error) {
	keys := s.planKeys(ctx, query)
	if len(keys) == 0 {
		return nil, "", nil
	}

	docs := s.fetchAll(ctx, keys, query)
	if len(docs) == 0 {
		return nil, "", nil
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Score > docs[j].Score
	})
	if len(docs) > s.retrieval.TopK {
		docs = docs[:s.retrieval.TopK]
	}

	var parts []string
	contextLength := 0
	for i, d := range docs {
		d.Tag = fmt.Sprintf("D%d", i+1)
		remaining := s.retrieval.LimitContextChars - contextLength - 200
		if remaining <= 0 {
			break
		}
		content := d.Text
		if len(content) > remaining {
			content = content[:remaining] + "\n[문서가 길어 일부만 표시됩니다...]"
		}
		part := fmt.Sprintf("[%s] (s3://%s/%s)\n%s\n", d.Tag, s.s3cfg.DataBucket, d.Key, content)
		parts = append(parts, part)
		contextLength += len(part)
	}

	return docs, strings.TrimSpace(strings.Join(parts, "\n---\n")), nil
}

// planKeys decides which keys to fetch for a query.
func (s *Store) planKeys(ctx context.Context, query string) []string {
	gran := temporal.RequestedGranularity(query)
	datePrefix := ""
	if target, ok := temporal.FirstMoment(query, s.now()); ok {
		datePrefix = target.Format("20060102")
	}

	var priority []string
	appendFamily := func(family string, perFamily int) {
		prefix := s.s3cfg.Prefix + family
		if datePrefix != "" {
			prefix += datePrefix + "/"
		}
		keys, err := s.listKeys(ctx, prefix, perFamily)
		if err != nil {
			return
		}
		priority = append(priority, keys...)
	}

	switch gran {
	case temporal.GranularityHour:
		appendFamily("hourtrend/", priorityKeysPerFamily)
		appendFamily("houravg/", priorityKeysPerFamily)
	case temporal.GranularityMinute:
		appendFamily("minavg/", priorityKeysPerFamily)
		appendFamily("mintrend/", priorityKeysPerFamily)
	case temporal.GranularitySecond, temporal.GranularityNone:
	}
	if datePrefix != "" {
		appendFamily("rawdata/", rawKeysPerDate)
	}

	// A dated scan that already found plenty skips the broad walk.
	if datePrefix != "" && len(priority) >= priorityKeysPerFamily {
		return dedupeKeys(priority, s.retrieval.MaxFilesToScan)
	}

	broadLimit := s.retrieval.MaxFilesToScan
	if datePrefix != "" {
		broadLimit /= 2
	}
	broad, _ := s.listKeys(ctx, s.s3cfg.Prefix, broadLimit)
	return dedupeKeys(append(priority, broad...), s.retrieval.MaxFilesToScan)
}

func dedupeKeys(keys []string, limit int) []string {
	seen := make(map[string]bool, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// QuickEvidence probes the first few corpus objects to see whether any
// classifies into a known sensor shape. Used by mid-confidence routing.
func (s *Store) QuickEvidence(ctx context.Context, query string) (route.Evidence, error) {
	keys, err := s.listKeys(ctx, s.s3cfg.Prefix, quickProbeKeys)
	if err != nil {
		return route.Evidence{}, err
	}
	docs := s.fetchAll(ctx, keys, query)
	if len(docs) == 0 {
		return route.Evidence{}, nil
	}
	ev := route.Evidence{}
	for _, d := range docs {
		if d.Kind != sensor.KindUnknown {
			ev.HasSchema = true
		}
		if d.Score > ev.BestScore {
			ev.BestScore = d.Score
		}
	}
	return ev, nil
}
