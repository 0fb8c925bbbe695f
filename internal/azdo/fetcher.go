package azdo

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"adokpi/internal/scoring"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Fetcher pulls a project's work items and their revision histories using a
// bounded worker pool. Batch failures degrade to per-item fetches so one bad
// item cannot sink its whole batch; per-item failures become diagnostics and
// the run continues.
type Fetcher struct {
	client    Client
	workers   int
	batchSize int

	// maxFailures aborts the run when this many items fail outright, which
	// usually means the credential or the service is the problem, not the data.
	maxFailures int
}

// NewFetcher creates a fetcher around client. workers and batchSize fall back
// to 10 and 50 when unset; batchSize is clamped to the API limit of 200.
func NewFetcher(client Client, workers, batchSize int) *Fetcher {
	if workers <= 0 {
		workers = 10
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	if batchSize > 200 {
		batchSize = 200
	}
	return &Fetcher{
		client:      client,
		workers:     workers,
		batchSize:   batchSize,
		maxFailures: 25,
	}
}

// FetchProject runs the query and returns one input per fetched item, sorted
// by ID, plus fetch diagnostics for items that could not be retrieved.
func (f *Fetcher) FetchProject(ctx context.Context, q Query) ([]scoring.ItemInput, []scoring.Diagnostic, error) {
	ids, err := f.client.QueryWorkItemIDs(ctx, q.Project, BuildWorkItemQuery(q))
	if err != nil {
		return nil, nil, fmt.Errorf("querying work items for %s: %w", q.Project, err)
	}
	log.Info().Str("project", q.Project).Int("items", len(ids)).Msg("Work item query complete")
	if len(ids) == 0 {
		return nil, nil, nil
	}

	dtos, diags, err := f.fetchBatches(ctx, ids)
	if err != nil {
		return nil, diags, err
	}

	inputs, updateDiags, err := f.fetchHistories(ctx, dtos)
	if err != nil {
		return nil, append(diags, updateDiags...), err
	}
	diags = append(diags, updateDiags...)

	sort.Slice(inputs, func(i, j int) bool { return inputs[i].Item.ID < inputs[j].Item.ID })
	return inputs, diags, nil
}

// collector accumulates results and failures from the worker pool.
type collector struct {
	mu       sync.Mutex
	dtos     []WorkItemDTO
	diags    []scoring.Diagnostic
	failures int
}

func (c *collector) add(dtos ...WorkItemDTO) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dtos = append(c.dtos, dtos...)
}

func (c *collector) fail(itemID int, err error) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
	c.diags = append(c.diags, scoring.Diagnostic{
		Kind:    scoring.DiagFetch,
		ItemID:  itemID,
		Message: fmt.Sprintf("fetch failed: %v", err),
	})
	return c.failures
}

func (f *Fetcher) fetchBatches(ctx context.Context, ids []int) ([]WorkItemDTO, []scoring.Diagnostic, error) {
	col := &collector{}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	for start := 0; start < len(ids); start += f.batchSize {
		batch := ids[start:min(start+f.batchSize, len(ids))]
		g.Go(func() error {
			dtos, err := f.client.GetWorkItemBatch(ctx, batch)
			if err == nil {
				col.add(dtos...)
				return nil
			}

			log.Warn().Err(err).Int("size", len(batch)).Msg("Batch fetch failed, retrying items individually")
			for _, id := range batch {
				single, err := f.client.GetWorkItemBatch(ctx, []int{id})
				if err != nil {
					if col.fail(id, err) > f.maxFailures {
						return fmt.Errorf("aborting after %d failed items: %w", f.maxFailures, err)
					}
					continue
				}
				col.add(single...)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, col.diags, err
	}
	return col.dtos, col.diags, nil
}

func (f *Fetcher) fetchHistories(ctx context.Context, dtos []WorkItemDTO) ([]scoring.ItemInput, []scoring.Diagnostic, error) {
	inputs := make([]scoring.ItemInput, len(dtos))
	col := &collector{}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.workers)

	for i, dto := range dtos {
		i, dto := i, dto
		g.Go(func() error {
			updates, err := f.client.GetWorkItemUpdates(ctx, dto.ID)
			if err != nil {
				// Keep the item; the walker falls back to its creation date.
				if col.fail(dto.ID, fmt.Errorf("revision history unavailable: %w", err)) > f.maxFailures {
					return fmt.Errorf("aborting after %d failed items: %w", f.maxFailures, err)
				}
				inputs[i] = scoring.ItemInput{Item: MapWorkItem(dto)}
				return nil
			}
			inputs[i] = scoring.ItemInput{
				Item:        MapWorkItem(dto),
				Transitions: MapUpdates(dto.ID, updates),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, col.diags, err
	}
	return inputs, col.diags, nil
}
