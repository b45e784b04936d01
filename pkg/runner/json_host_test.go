package runner

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/timbre/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, out *bytes.Buffer) []Message {
	t.Helper()
	var msgs []Message
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		var m Message
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		msgs = append(msgs, m)
	}
	return msgs
}

func TestJSONHost_Present(t *testing.T) {
	out := &bytes.Buffer{}
	host := NewJSONHost(strings.NewReader(`{"rating": 4}`+"\n"), out)

	resp, err := host.Present(context.Background(), &domain.Step{
		BlockID: "experiment/english/sections/dissimilarity/chunk-1/1",
		Name:    "dissimilarity",
		Kind:    domain.StepDissimilarity,
		Params:  domain.Trial{Left: "a.wav", Right: "b.wav", TrialNumber: 1, TotalTrials: 1},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 4, resp.Values["rating"])

	msgs := decodeLines(t, out)
	require.Len(t, msgs, 1)
	assert.Equal(t, MessageStep, msgs[0].Type)
	assert.Equal(t, domain.StepDissimilarity, msgs[0].Kind)
	assert.Equal(t, "dissimilarity", msgs[0].Name)
}

func TestJSONHost_BlankLineIsEmptyResponse(t *testing.T) {
	host := NewJSONHost(strings.NewReader("\n"), &bytes.Buffer{})
	resp, err := host.Present(context.Background(), &domain.Step{Kind: domain.StepText})
	require.NoError(t, err)
	assert.Empty(t, resp.Values)
}

func TestJSONHost_InvalidLine(t *testing.T) {
	host := NewJSONHost(strings.NewReader("not json\n"), &bytes.Buffer{})
	_, err := host.Present(context.Background(), &domain.Step{Kind: domain.StepFeedback})
	assert.Error(t, err)
}

func TestJSONHost_NoticeAndProgress(t *testing.T) {
	out := &bytes.Buffer{}
	host := NewJSONHost(strings.NewReader(""), out)

	_, err := host.Present(context.Background(), &domain.Step{Kind: domain.StepNotice, Content: "done"})
	require.NoError(t, err)
	require.NoError(t, host.Notify(context.Background(), domain.Notice{Level: domain.NoticeInfo, Message: "thanks"}))
	host.Progress(context.Background(), 0.25)

	msgs := decodeLines(t, out)
	require.Len(t, msgs, 3)
	assert.Equal(t, MessageStep, msgs[0].Type)
	assert.Equal(t, "thanks", msgs[1].Notice.Message)
	require.NotNil(t, msgs[2].Progress)
	assert.Equal(t, 0.25, *msgs[2].Progress)
}
