package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yashubustudio/sentiment/sentiment"
)

func writeTestModel(t *testing.T, dir string) string {
	t.Helper()
	model := sentiment.LinearModel{
		Vocabulary: map[string]int{"great": 0, "awful": 1, "movie": 2},
		IDF:        []float64{1, 1, 1},
		NgramRange: [2]int{1, 1},
		Coef:       [][]float64{{3, -3, 0}},
		Intercept:  []float64{0},
		Classes:    []int{0, 1},
	}
	data, err := json.Marshal(model)
	require.NoError(t, err)
	modelPath := filepath.Join(dir, "model.json")
	require.NoError(t, os.WriteFile(modelPath, data, 0o644))

	cfgPath := filepath.Join(dir, "config.json")
	cfg := sentiment.Config{Model: sentiment.ModelConfig{Path: modelPath, ModelID: "cli-test"}}
	require.NoError(t, sentiment.SaveConfig(cfgPath, cfg))
	return cfgPath
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"--review", "fine film", "--server", "http://localhost:8000/"})
	require.NoError(t, err)
	assert.Equal(t, "fine film", opts.review)
	assert.Equal(t, "http://localhost:8000", opts.serverURL)

	_, err = parseFlags([]string{})
	assert.Error(t, err)

	_, err = parseFlags([]string{"--review", "x", "--input", "reviews.csv"})
	assert.Error(t, err)

	opts, err = parseFlags([]string{"--init-config"})
	require.NoError(t, err)
	assert.True(t, opts.initConfig)
}

func TestRun_LocalReviewJSON(t *testing.T) {
	cfgPath := writeTestModel(t, t.TempDir())

	var out bytes.Buffer
	err := run(cliOptions{configPath: cfgPath, review: "A great movie!", jsonOut: true}, &out)
	require.NoError(t, err)

	var line jsonLine
	require.NoError(t, json.Unmarshal(out.Bytes(), &line))
	assert.Equal(t, "A great movie!", line.Text)
	assert.Equal(t, sentiment.LabelPositive, line.Prediction)
	assert.Regexp(t, `^(0\.\d\d|1\.00)$`, line.Probability)
}

func TestRun_LocalBatchToCSV(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeTestModel(t, dir)
	input := filepath.Join(dir, "reviews.csv")
	require.NoError(t, os.WriteFile(input, []byte("id,review\n1,great movie\n2,awful\n"), 0o644))
	output := filepath.Join(dir, "out", "results.csv")

	var out bytes.Buffer
	err := run(cliOptions{configPath: cfgPath, inputPath: input, outputPath: output}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "wrote 2 results")

	f, err := os.Open(output)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"text", "prediction", "probability"}, rows[0])
	assert.Equal(t, sentiment.LabelPositive, rows[1][1])
	assert.Equal(t, sentiment.LabelNegative, rows[2][1])
}

func TestRun_ModelPathFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeTestModel(t, dir)
	cfgPath := filepath.Join(dir, "stale.json")
	require.NoError(t, sentiment.SaveConfig(cfgPath, sentiment.Config{
		Model: sentiment.ModelConfig{Path: filepath.Join(dir, "missing.json")},
	}))
	t.Setenv("MODEL_PATH", filepath.Join(dir, "model.json"))
	t.Setenv("CONFIG_PATH", cfgPath)

	var out bytes.Buffer
	err := run(cliOptions{review: "awful", jsonOut: true}, &out)
	require.NoError(t, err)

	var line jsonLine
	require.NoError(t, json.Unmarshal(out.Bytes(), &line))
	assert.Equal(t, sentiment.LabelNegative, line.Prediction)
}

func TestRun_InitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	var out bytes.Buffer
	require.NoError(t, run(cliOptions{configPath: path, initConfig: true}, &out))

	cfg, err := sentiment.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "./models/sentiment_pipeline.json", cfg.Model.Path)
}

func TestRemoteClient(t *testing.T) {
	var gotBody map[string]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/predict", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"prediction":"Negative","probability":"0.73"}`))
	}))
	defer ts.Close()

	c := newRemoteClient(ts.URL, time.Second)
	res, err := c.Predict(context.Background(), "not for me")

	require.NoError(t, err)
	assert.Equal(t, "not for me", gotBody["review"])
	assert.Equal(t, sentiment.Result{Prediction: "Negative", Probability: "0.73"}, res)
}

func TestRemoteClient_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"field \"review\" is required","type":"validation"}`))
	}))
	defer ts.Close()

	_, err := newRemoteClient(ts.URL, time.Second).Predict(context.Background(), "x")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "validation")
}

func TestRemoteClient_PredictAllStopsAtFirstFailure(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"prediction":"Positive","probability":"0.60"}`))
	}))
	defer ts.Close()

	_, err := newRemoteClient(ts.URL, time.Second).PredictAll(context.Background(), []string{"a", "b", "c"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "review 1")
	assert.Equal(t, 2, calls)
}

func TestSummarizeRecord(t *testing.T) {
	assert.Equal(t, "(empty review)", summarizeRecord(sentiment.InputRecord{Text: "  "}))
	assert.Equal(t, "#7 short", summarizeRecord(sentiment.InputRecord{ID: "7", Text: "short"}))
	long := summarizeRecord(sentiment.InputRecord{Text: strings.Repeat("x", 80)})
	assert.True(t, strings.HasSuffix(long, "…"))
}
