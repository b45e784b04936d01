package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/timbre/internal/config"
	"github.com/aretw0/timbre/internal/trialgen"
	"github.com/aretw0/timbre/pkg/adapters/file"
	httpadapter "github.com/aretw0/timbre/pkg/adapters/http"
	"github.com/aretw0/timbre/pkg/adapters/memory"
	"github.com/aretw0/timbre/pkg/adapters/redis"
	"github.com/aretw0/timbre/pkg/domain"
	"github.com/aretw0/timbre/pkg/persistence/middleware"
	"github.com/aretw0/timbre/pkg/runner"
	"github.com/aretw0/timbre/templates"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Audio.Dir = t.TempDir()
	for _, name := range []string{"a.wav", "b.wav", "c.wav", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(cfg.Audio.Dir, name), []byte("RIFF"), 0o644))
	}
	cfg.Results.Dir = t.TempDir()
	cfg.Export.Dir = t.TempDir()
	cfg.Sections.HeadphoneCheck = false
	cfg.Log.Level = "error"
	return cfg
}

func TestNewSpecSource(t *testing.T) {
	cfg := testConfig(t)
	logger := NewLogger(cfg, false)

	gen, ok := NewSpecSource(cfg, logger).(*trialgen.Generator)
	require.True(t, ok)
	spec, err := gen.FetchSpec(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.wav", "b.wav", "c.wav"}, spec.Files)

	cfg.Server.Endpoint = "http://localhost:8080"
	_, ok = NewSpecSource(cfg, logger).(*httpadapter.Client)
	assert.True(t, ok)
}

func TestNewTemplates_Default(t *testing.T) {
	provider, err := NewTemplates(testConfig(t))
	require.NoError(t, err)
	assert.IsType(t, templates.Default(), provider)
}

func TestNewResultStore(t *testing.T) {
	ctx := context.Background()

	t.Run("file", func(t *testing.T) {
		store, release, err := NewResultStore(ctx, testConfig(t))
		require.NoError(t, err)
		defer release()
		assert.IsType(t, &file.Store{}, store)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		cfg := testConfig(t)
		cfg.Redis.URL = "redis://" + mr.Addr()
		cfg.Redis.Prefix = "test:"

		store, release, err := NewResultStore(ctx, cfg)
		require.NoError(t, err)
		defer release()
		assert.IsType(t, &redis.Store{}, store)

		require.NoError(t, store.Save(ctx, domain.Submission{SpecID: "s1"}))
		assert.True(t, mr.Exists("test:s1"))
	})

	t.Run("sealed and redacted", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Results.Redact = []string{"^age$"}
		cfg.Results.Key = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{7}, 32))

		store, release, err := NewResultStore(ctx, cfg)
		require.NoError(t, err)
		defer release()

		sub := domain.Submission{SpecID: "s2", Responses: []domain.ResponseRecord{
			{SpecID: "s2", Name: "questionnaire", Values: map[string]any{"age": "40", "first_language": "Welsh"}},
		}}
		require.NoError(t, store.Save(ctx, sub))

		raw, err := file.NewStore(cfg.Results.Dir).Load(ctx, "s2")
		require.NoError(t, err)
		assert.Equal(t, middleware.SealedName, raw.Responses[0].Name)

		loaded, err := store.Load(ctx, "s2")
		require.NoError(t, err)
		assert.Equal(t, middleware.Masked, loaded.Responses[0].Values["age"])
		assert.Equal(t, "Welsh", loaded.Responses[0].Values["first_language"])
	})

	t.Run("redis unreachable", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Redis.URL = "redis://127.0.0.1:1"
		_, _, err := NewResultStore(ctx, cfg)
		assert.Error(t, err)
	})
}

type failingStore struct{ memory.Store }

func (f *failingStore) Save(context.Context, domain.Submission) error {
	return errors.New("disk full")
}

func TestStoreSink_WrapsErrors(t *testing.T) {
	err := storeSink{&failingStore{}}.Submit(context.Background(), domain.Submission{SpecID: "x"})
	assert.ErrorIs(t, err, domain.ErrTransmission)

	store := memory.NewStore()
	require.NoError(t, storeSink{store}.Submit(context.Background(), domain.Submission{SpecID: "x"}))
	assert.Equal(t, 1, store.Len())
}

func TestRunSession_ConsentRefusal(t *testing.T) {
	cfg := testConfig(t)
	in := strings.NewReader("\n\n" + `{"consent": false}` + "\n")
	out := &bytes.Buffer{}

	require.NoError(t, RunSession(context.Background(), cfg, RunOptions{JSON: true, In: in, Out: out}))

	var msgs []runner.Message
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		var m runner.Message
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		msgs = append(msgs, m)
	}
	require.NotEmpty(t, msgs)
	last := msgs[len(msgs)-1]
	assert.Equal(t, runner.MessageStep, last.Type)
	assert.Equal(t, "stop", last.Name)

	ids, err := file.NewStore(cfg.Results.Dir).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids, "a refused session submits nothing")
}

func TestServerHandler(t *testing.T) {
	cfg := testConfig(t)
	handler, release, err := NewServerHandler(context.Background(), cfg, NewLogger(cfg, false))
	require.NoError(t, err)
	defer release()

	srv := httptest.NewServer(handler)
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/api/get-experiment-spec")
	require.NoError(t, err)
	var spec domain.ExperimentSpec
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&spec))
	resp.Body.Close()
	assert.Len(t, spec.Trials, 6)

	resp, err = srv.Client().Get(srv.URL + "/audio/a.wav")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInspect(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Save(ctx, domain.Submission{
		SpecID:    "abc",
		Responses: []domain.ResponseRecord{{ID: "r1", Name: "dissimilarity"}},
	}))

	out := &bytes.Buffer{}
	require.NoError(t, ListResults(ctx, out, store))
	assert.Contains(t, out.String(), "SPEC ID")
	assert.Regexp(t, `abc\s+1`, out.String())

	out.Reset()
	require.NoError(t, ShowResult(ctx, out, store, "abc", "yaml"))
	assert.Contains(t, out.String(), "specid: abc")

	err := ShowResult(ctx, out, store, "missing", "json")
	assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)

	out.Reset()
	gen := trialgen.New(trialgen.WithFiles("a.wav", "b.wav"))
	require.NoError(t, PrintSpec(ctx, out, gen, "json"))
	var spec domain.ExperimentSpec
	require.NoError(t, json.Unmarshal(out.Bytes(), &spec))
	assert.Len(t, spec.Trials, 3)

	assert.Error(t, PrintSpec(ctx, out, gen, "toml"))
}
