// Marquee - Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package recommend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/marquee/internal/catalog"
	"github.com/tomtom215/marquee/internal/metrics"
	"github.com/tomtom215/marquee/internal/recommend/storage"
)

func likes(genres ...GenreRef) Request {
	return Request{LikedMovies: []MovieDescriptor{{Genres: genres}}}
}

func code(c int) GenreRef     { return GenreRef{Code: c, IsCode: true} }
func label(s string) GenreRef { return GenreRef{Label: s} }

func years(movies []Movie) []int {
	out := make([]int, len(movies))
	for i, m := range movies {
		out[i] = m.ReleaseYear
	}
	return out
}

func TestRecommendFiltersByGenreCode(t *testing.T) {
	e := newTestEngine(t, scenarioCorpus())

	req := likes(code(1))
	req.TopN = 5
	got, err := e.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	if want := []int{2018, 2016}; !reflect.DeepEqual(years(got), want) {
		t.Errorf("Recommend() years = %v, want %v", years(got), want)
	}
	if want := []string{"Steel Run", "Iron Chase"}; !reflect.DeepEqual(titles(got), want) {
		t.Errorf("Recommend() titles = %v, want %v", titles(got), want)
	}
}

func TestRecommendFallsBackToTopRated(t *testing.T) {
	e := newTestEngine(t, scenarioCorpus())
	before := testutil.ToFloat64(metrics.RecommendationsTotal.WithLabelValues(metrics.PathFallback))

	req := Request{WatchHistory: []MovieDescriptor{{Genres: GenreList{label("Romance")}}}}
	got, err := e.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}

	want := []string{"Quiet Harbor", "Laugh Track", "Steel Run", "Iron Chase", "Steel Run Again"}
	if !reflect.DeepEqual(titles(got), want) {
		t.Errorf("Recommend() = %v, want %v", titles(got), want)
	}
	after := testutil.ToFloat64(metrics.RecommendationsTotal.WithLabelValues(metrics.PathFallback))
	if after != before+1 {
		t.Errorf("fallback counter = %v, want %v", after, before+1)
	}
}

func TestRecommendThresholds(t *testing.T) {
	records := []catalog.MovieRecord{
		movie("tt1", "Old Gem", "Drama", 9.5, "2010-01-01"),
		movie("tt2", "New Miss", "Drama", 6.0, "2022-01-01"),
		movie("tt3", "Edge Case", "Drama", 7.5, "2015-01-01"),
	}
	e := newTestEngine(t, records)

	got, err := e.Recommend(context.Background(), likes(label("Drama")))
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"Edge Case"}; !reflect.DeepEqual(titles(got), want) {
		t.Errorf("Recommend() = %v, want %v", titles(got), want)
	}
}

func TestRecommendEmptyPayload(t *testing.T) {
	e := newTestEngine(t, scenarioCorpus())

	got, err := e.Recommend(context.Background(), Request{TopN: 5})
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("Recommend() = %v, want empty non-nil slice", got)
	}
}

func TestRecommendWithoutModel(t *testing.T) {
	e := NewEngine(nil, DefaultEngineConfig())
	before := testutil.ToFloat64(metrics.RecommendationsTotal.WithLabelValues(metrics.PathNoModel))

	got, err := e.Recommend(context.Background(), likes(code(1)))
	if err != nil {
		t.Fatalf("Recommend() error = %v, want nil", err)
	}
	if len(got) != 0 {
		t.Errorf("Recommend() = %v, want empty", got)
	}
	if after := testutil.ToFloat64(metrics.RecommendationsTotal.WithLabelValues(metrics.PathNoModel)); after != before+1 {
		t.Errorf("no_model counter = %v, want %v", after, before+1)
	}
}

func TestRecommendMissingFieldDefaults(t *testing.T) {
	rec := movie("tt9", "Bare", "Horror", 0, "2021-01-01")
	rec.Overview, rec.HasOverview = "", false
	rec.Rating, rec.HasRating = 0, false
	rec.Runtime, rec.HasRuntime = 0, false

	e := newTestEngine(t, []catalog.MovieRecord{rec, movie("tt8", "Other", "Comedy", 8, "2019-01-01")})

	// Unrated movies never pass the rating gate, so this lands in the fallback.
	got, err := e.Recommend(context.Background(), likes(code(11)))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1].Title != "Bare" {
		t.Fatalf("Recommend() = %v", titles(got))
	}
	m := got[1]
	if m.Overview != DefaultOverview || m.IMDbRating != 0 || m.Runtime != 0 {
		t.Errorf("defaults = %+v", m)
	}
	if m.Genres != "Horror" || m.ReleaseYear != 2021 {
		t.Errorf("projection = %+v", m)
	}
}

func TestRecommendTopN(t *testing.T) {
	records := make([]catalog.MovieRecord, 0, 30)
	for i := 0; i < 30; i++ {
		records = append(records, movie(fmt.Sprintf("tt%07d", i), fmt.Sprintf("Movie %d", i), "Drama", 8, "2020-01-01"))
	}
	cfg := DefaultEngineConfig()
	cfg.MaxTopN = 20
	e := NewEngine(nil, cfg)
	if err := e.SetModel(buildModel(t, records), 1); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		topN int
		want int
	}{
		{0, 10},
		{-3, 10},
		{5, 5},
		{25, 20},
	}
	for _, tt := range tests {
		req := likes(label("Drama"))
		req.TopN = tt.topN
		got, err := e.Recommend(context.Background(), req)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != tt.want {
			t.Errorf("TopN %d: got %d results, want %d", tt.topN, len(got), tt.want)
		}
	}
}

func TestRecommendTiesKeepCorpusOrder(t *testing.T) {
	records := []catalog.MovieRecord{
		movie("tt1", "First", "Action", 8, "2020-06-01"),
		movie("tt2", "Second", "Action", 8, "2020-06-01"),
		movie("tt3", "Newest", "Action", 8, "2021-06-01"),
	}
	e := newTestEngine(t, records)

	got, err := e.Recommend(context.Background(), likes(code(1)))
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"Newest", "First", "Second"}; !reflect.DeepEqual(titles(got), want) {
		t.Errorf("Recommend() = %v, want %v", titles(got), want)
	}
}

func TestSimilar(t *testing.T) {
	e := newTestEngine(t, scenarioCorpus())
	ctx := context.Background()

	got, err := e.Similar(ctx, "tt0000001", 2)
	if err != nil {
		t.Fatalf("Similar() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Similar() returned %d, want 2", len(got))
	}
	if got[0].IMDbID != "tt0000002" {
		t.Errorf("Similar()[0] = %s, want tt0000002", got[0].IMDbID)
	}
	for _, m := range got {
		if m.IMDbID == "tt0000001" {
			t.Error("Similar() returned the movie itself")
		}
	}
	if got[0].Score < got[1].Score {
		t.Error("Similar() not sorted by score")
	}

	hits := testutil.ToFloat64(metrics.SimilarCacheHits)
	again, err := e.Similar(ctx, "tt0000001", 2)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(again, got) {
		t.Error("cached Similar() result differs")
	}
	if testutil.ToFloat64(metrics.SimilarCacheHits) != hits+1 {
		t.Error("second Similar() call was not a cache hit")
	}

	// k beyond the stored list is capped by TopK.
	all, err := e.Similar(ctx, "tt0000001", 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("Similar(k=50) returned %d, want 3", len(all))
	}
}

func TestSimilarErrors(t *testing.T) {
	empty := NewEngine(nil, DefaultEngineConfig())
	if _, err := empty.Similar(context.Background(), "tt0000001", 5); !errors.Is(err, ErrNoModel) {
		t.Errorf("Similar() without model error = %v, want ErrNoModel", err)
	}

	e := newTestEngine(t, scenarioCorpus())
	if _, err := e.Similar(context.Background(), "tt404", 5); !errors.Is(err, ErrUnknownMovie) {
		t.Errorf("Similar() unknown id error = %v, want ErrUnknownMovie", err)
	}
}

func newFileStore(t *testing.T) *storage.FileStore {
	t.Helper()
	s, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	return s
}

func TestEngineLoad(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)
	cfg := DefaultEngineConfig()
	e := NewEngine(store, cfg)

	if _, err := e.Load(ctx); !errors.Is(err, storage.ErrModelNotFound) {
		t.Fatalf("Load() on empty store error = %v, want ErrModelNotFound", err)
	}
	if e.Ready() {
		t.Fatal("Ready() = true before any load")
	}

	m := buildModel(t, scenarioCorpus())
	if _, err := store.Save(ctx, cfg.ModelName, m, storage.ModelMetadata{ItemCount: len(m.Corpus)}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	changed, err := e.Load(ctx)
	if err != nil || !changed {
		t.Fatalf("Load() = %v, %v, want true, nil", changed, err)
	}
	st := e.Status()
	if !st.Loaded || st.Version != 1 || st.NumMovies != 5 || st.TopK != 3 {
		t.Errorf("Status() = %+v", st)
	}

	changed, err = e.Load(ctx)
	if err != nil || changed {
		t.Errorf("second Load() = %v, %v, want false, nil", changed, err)
	}

	extended := append(scenarioCorpus(), movie("tt0000006", "Night Shift", "Thriller", 8.4, "2021-09-09"))
	m2 := buildModel(t, extended)
	if _, err := store.Save(ctx, cfg.ModelName, m2, storage.ModelMetadata{}); err != nil {
		t.Fatal(err)
	}
	changed, err = e.Load(ctx)
	if err != nil || !changed {
		t.Fatalf("Load() after new version = %v, %v", changed, err)
	}
	if st := e.Status(); st.Version != 2 || st.NumMovies != 6 {
		t.Errorf("Status() after reload = %+v", st)
	}
}

func TestEngineLoadKeepsSnapshotOnFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := storage.NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultEngineConfig()
	e := NewEngine(store, cfg)

	m := buildModel(t, scenarioCorpus())
	if _, err := store.Save(ctx, cfg.ModelName, m, storage.ModelMetadata{}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Load(ctx); err != nil {
		t.Fatal(err)
	}

	t.Run("schema mismatch", func(t *testing.T) {
		bad := buildModel(t, scenarioCorpus())
		bad.Metadata.Columns = []string{"title"}
		if _, err := store.Save(ctx, cfg.ModelName, bad, storage.ModelMetadata{}); err != nil {
			t.Fatal(err)
		}
		if _, err := e.Load(ctx); !errors.Is(err, ErrSchemaMismatch) {
			t.Errorf("Load() error = %v, want ErrSchemaMismatch", err)
		}
		if st := e.Status(); st.Version != 1 {
			t.Errorf("active version = %d, want 1 kept", st.Version)
		}
	})

	t.Run("corrupt artifact", func(t *testing.T) {
		path := filepath.Join(dir, cfg.ModelName+"_v3.gob.gz")
		if err := os.WriteFile(path, []byte("not a model"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := e.Load(ctx); !errors.Is(err, storage.ErrCorruptModel) {
			t.Errorf("Load() error = %v, want ErrCorruptModel", err)
		}
		if st := e.Status(); st.Version != 1 {
			t.Errorf("active version = %d, want 1 kept", st.Version)
		}

		got, err := e.Recommend(ctx, likes(code(1)))
		if err != nil || len(got) == 0 {
			t.Errorf("Recommend() after failed reload = %v, %v", titles(got), err)
		}
	})
}

func TestTopN(t *testing.T) {
	e := NewEngine(nil, EngineConfig{DefaultTopN: 200, MaxTopN: 50})
	if got := e.TopN(0); got != 50 {
		t.Errorf("TopN(0) = %d, want default clamped to 50", got)
	}
	if got := e.TopN(7); got != 7 {
		t.Errorf("TopN(7) = %d", got)
	}
}
