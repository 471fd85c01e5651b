package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// bulkConcurrency caps how many bulk items match at once. Matching is
// CPU-bound string work; a small pool keeps large batches from pinning
// every core.
const bulkConcurrency = 8

// BulkItem is one entry of a bulk match request.
type BulkItem struct {
	Description string `json:"description"`
	Unit        string `json:"unit,omitempty"`
	TaskID      string `json:"task_id,omitempty"`
}

// BulkResult echoes the item it answers. Match holds the same payload a
// single call would render: one result, a result list, an alternatives
// envelope, or nil.
type BulkResult struct {
	Description string `json:"description"`
	Unit        string `json:"unit"`
	TaskID      string `json:"task_id,omitempty"`
	Status      string `json:"status"`
	Match       any    `json:"match"`
	Error       string `json:"error,omitempty"`
}

// BulkBestMatch matches every item and returns results in input order.
// Items fail independently: a blank description, a canceled context, or
// a panicking dependency marks only that item with StatusError.
func (s *Matcher) BulkBestMatch(ctx context.Context, items []BulkItem) []BulkResult {
	results := make([]BulkResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bulkConcurrency)
	for i, item := range items {
		i, item := i, item // per-iteration copies; go directive predates Go 1.22 loop scoping
		g.Go(func() error {
			results[i] = s.matchItem(gctx, item)
			return nil
		})
	}
	// Workers never return errors; Wait only fences completion.
	_ = g.Wait()
	return results
}

func (s *Matcher) matchItem(ctx context.Context, item BulkItem) (br BulkResult) {
	br = BulkResult{Description: item.Description, Unit: item.Unit, TaskID: item.TaskID}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("bulk match item failed",
				zap.String("task_id", item.TaskID), zap.Any("panic", r))
			br.Status = StatusError
			br.Match = nil
			br.Error = fmt.Sprintf("%v", r)
		}
	}()

	if err := ctx.Err(); err != nil {
		br.Status = StatusError
		br.Error = err.Error()
		return br
	}
	if strings.TrimSpace(item.Description) == "" {
		br.Status = StatusError
		br.Error = "description is required"
		return br
	}

	out := s.resolve(item.Description, item.Unit, false)
	s.observe(item.Description, item.Unit, out)

	br.Status = out.Status
	if out.Alternatives != nil {
		br.Match = out.Alternatives
	} else {
		br.Match = out.MatchPayload()
	}
	return br
}
