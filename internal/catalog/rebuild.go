package catalog

import (
	"context"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/tendelabs/catalog-search/index"
	"github.com/tendelabs/catalog-search/model"
)

// rebuildTask is one entity whose vector gets recomputed during a full
// rebuild.
type rebuildTask struct {
	entityType model.EntityType
	id         uuid.UUID
	fields     map[string]string
}

// Rebuild recomputes every derived vector and swaps both indexes of each
// collection wholesale. It is explicit and blocking: normal writes wait
// until the rebuild finishes, and searchers never observe a half-built
// index. Vector computation fans out over a worker pool; the index swap
// itself happens in one critical section per structure.
func (s *Service) Rebuild(ctx context.Context) error {
	s.rebuildMu.Lock()
	defer s.rebuildMu.Unlock()

	var tasks []rebuildTask
	err := s.store.ForEachIngredient(func(ingredient *model.Ingredient) error {
		tasks = append(tasks, rebuildTask{
			entityType: model.EntityTypeIngredient,
			id:         ingredient.ID,
			fields:     ingredient.WeightedFields(),
		})
		return nil
	})
	if err != nil {
		return err
	}
	err = s.store.ForEachFormula(func(formula *model.Formula) error {
		tasks = append(tasks, rebuildTask{
			entityType: model.EntityTypeFormula,
			id:         formula.ID,
			fields:     formula.WeightedFields(),
		})
		return nil
	})
	if err != nil {
		return err
	}

	pool, err := ants.NewPool(runtime.NumCPU())
	if err != nil {
		return err
	}
	defer pool.Release()

	terms := map[model.EntityType]map[uuid.UUID]map[string]index.TermInfo{
		model.EntityTypeIngredient: make(map[uuid.UUID]map[string]index.TermInfo),
		model.EntityTypeFormula:    make(map[uuid.UUID]map[string]index.TermInfo),
	}
	entries := map[model.EntityType]map[uuid.UUID]map[string]index.FieldEntry{
		model.EntityTypeIngredient: make(map[uuid.UUID]map[string]index.FieldEntry),
		model.EntityTypeFormula:    make(map[uuid.UUID]map[string]index.FieldEntry),
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	for _, task := range tasks {
		task := task
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			vec, buildErr := s.builder.Build(task.entityType, task.fields)

			mu.Lock()
			defer mu.Unlock()
			if buildErr != nil {
				if firstErr == nil {
					firstErr = buildErr
				}
				return
			}
			terms[task.entityType][task.id] = s.builder.Terms(vec)
			entries[task.entityType][task.id] = s.builder.FieldEntries(task.fields)
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = submitErr
			}
			mu.Unlock()
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}

	for entityType, col := range s.collections {
		col.inverted.Rebuild(terms[entityType])
		col.trigrams.Rebuild(entries[entityType])
	}

	s.logger.InfoContext(ctx, "indexes rebuilt",
		"operation", "rebuild",
		"entities", len(tasks),
	)
	return nil
}
