package labordash_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nulllvoid/labordash"
)

func newTestSession(t *testing.T, down ...string) *labordash.Session {
	t.Helper()
	return labordash.NewSession(fixtureCatalog(t, down...), time.Now())
}

func TestPipeline_New(t *testing.T) {
	t.Parallel()

	pipeline := labordash.NewPipeline("test_pipeline")

	assert.Equal(t, "test_pipeline", pipeline.Name())
	assert.Equal(t, 0, pipeline.StageCount())
}

func TestPipeline_AddStage(t *testing.T) {
	t.Parallel()

	pipeline := labordash.NewPipeline("test")
	pipeline.AddStage(labordash.NewStage("stage1", true, func(ctx context.Context, state *labordash.State) error {
		return nil
	}))

	assert.Equal(t, 1, pipeline.StageCount())
}

func TestPipeline_Execute(t *testing.T) {
	t.Parallel()

	t.Run("loads datasets and builds page", func(t *testing.T) {
		t.Parallel()

		pipeline := labordash.NewPipeline("test",
			labordash.WithDatasets(labordash.DatasetNational, labordash.DatasetState),
			labordash.WithBuilder(func(state *labordash.State) (*labordash.Page, error) {
				return &labordash.Page{
					Title: "rows",
					Views: []*labordash.View{{Name: "national", Table: state.Table(labordash.DatasetNational)}},
				}, nil
			}),
		)

		page, err := pipeline.Execute(context.Background(), newTestSession(t), &labordash.ViewRequest{})

		require.NoError(t, err)
		assert.Equal(t, "rows", page.Title)
		assert.Equal(t, 5, page.View("national").Table.Len())
	})

	t.Run("validation failure stops the run", func(t *testing.T) {
		t.Parallel()

		built := false
		pipeline := labordash.NewPipeline("test",
			labordash.WithBuilder(func(state *labordash.State) (*labordash.Page, error) {
				built = true
				return &labordash.Page{}, nil
			}),
			labordash.WithValidation((*labordash.ViewRequest).ValidateOccupation),
		)

		_, err := pipeline.Execute(context.Background(), newTestSession(t), &labordash.ViewRequest{Occupation: "bogus"})

		var stageErr *labordash.StageError
		require.ErrorAs(t, err, &stageErr)
		assert.Equal(t, "validation", stageErr.Stage)
		assert.ErrorIs(t, err, labordash.ErrValidationFailed)
		assert.False(t, built)
	})

	t.Run("optional stage failure is collected", func(t *testing.T) {
		t.Parallel()

		pipeline := labordash.NewPipeline("test",
			labordash.WithStage(labordash.NewStage("optional", false, func(ctx context.Context, state *labordash.State) error {
				return errors.New("optional failed")
			})),
			labordash.WithBuilder(func(state *labordash.State) (*labordash.Page, error) {
				return &labordash.Page{Title: "ok"}, nil
			}),
		)

		page, err := pipeline.Execute(context.Background(), newTestSession(t), &labordash.ViewRequest{})

		require.NoError(t, err)
		assert.Equal(t, "ok", page.Title)
	})

	t.Run("no builder yields empty page", func(t *testing.T) {
		t.Parallel()

		req := &labordash.ViewRequest{Occupation: "15-1252"}
		page, err := labordash.NewPipeline("test").Execute(context.Background(), newTestSession(t), req)

		require.NoError(t, err)
		assert.Equal(t, "15-1252", page.Request.Occupation)
		assert.Empty(t, page.Views)
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		pipeline := labordash.NewPipeline("test",
			labordash.WithTimeout(20*time.Millisecond),
			labordash.WithStage(labordash.NewStage("slow", true, func(ctx context.Context, state *labordash.State) error {
				<-ctx.Done()
				return ctx.Err()
			})),
		)

		_, err := pipeline.Execute(context.Background(), newTestSession(t), &labordash.ViewRequest{})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("records stage metrics", func(t *testing.T) {
		t.Parallel()

		counters := labordash.NewCounters()
		pipeline := labordash.NewPipeline("test",
			labordash.WithMetrics(counters),
			labordash.WithStage(labordash.NewStage("optional", false, func(ctx context.Context, state *labordash.State) error {
				return errors.New("nope")
			})),
		)

		_, err := pipeline.Execute(context.Background(), newTestSession(t), &labordash.ViewRequest{})
		require.NoError(t, err)
		assert.Equal(t, 1, counters.Snapshot().Errors["test/optional/execution_error"])
	})
}

func TestPipeline_StagesSeeACopyOfTheRequest(t *testing.T) {
	t.Parallel()

	pipeline := labordash.NewPipeline("test",
		labordash.WithStage(labordash.NewStage("mutate", true, func(ctx context.Context, state *labordash.State) error {
			state.Request().Occupation = "29-1141"
			return nil
		})),
	)

	req := &labordash.ViewRequest{Occupation: "15-1252"}
	page, err := pipeline.Execute(context.Background(), newTestSession(t), req)

	require.NoError(t, err)
	assert.Equal(t, "15-1252", req.Occupation)
	assert.Equal(t, "29-1141", page.Request.Occupation)
	assert.Equal(t, 30*time.Second, labordash.DefaultPipelineTimeout)
}
