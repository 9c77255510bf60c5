package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/azcost/internal/pipeline"
	"github.com/theirongolddev/azcost/internal/server"
)

const sampleCSV = "Date,ServiceName,ResourceGroup,Cost\n" +
	"2024-01-01,VM,rg-a,10\n" +
	"2024-01-01,Storage,rg-a,5\n" +
	"2024-01-02,VM,rg-b,20\n"

func newTestServer(t *testing.T) *Client {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	svc := server.New(server.Config{
		Options: pipeline.DefaultOptions(),
		Logger:  log,
	})
	ts := httptest.NewServer(svc.Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL)
}

func TestNew(t *testing.T) {
	assert.Nil(t, New(""))
	assert.Nil(t, New("   "))
	assert.Equal(t, "http://127.0.0.1:8787", New("127.0.0.1:8787").BaseURL())
	assert.Equal(t, "https://cost.example", New("https://cost.example/").BaseURL())
}

func TestStatus_Idle(t *testing.T) {
	c := newTestServer(t)

	st, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, server.StateIdle, st.State)
	assert.Zero(t, st.UploadCount)
}

func TestSummary_NoneYet(t *testing.T) {
	c := newTestServer(t)

	_, err := c.Summary(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoSummary)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "NOT_FOUND", apiErr.Code)
	assert.NotEmpty(t, apiErr.RequestID)
}

func TestUploadThenSummary(t *testing.T) {
	c := newTestServer(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "costs.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	s, err := c.Upload(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "35", s.TotalCost.String())
	assert.Len(t, s.DailyCosts, 2)

	got, err := c.Summary(ctx)
	require.NoError(t, err)
	assert.True(t, got.TotalCost.Equal(s.TotalCost))
	assert.Equal(t, "costs.csv", got.Source.Name)

	st, err := c.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, server.StateReady, st.State)
	assert.Equal(t, int64(1), st.UploadCount)
}

func TestUpload_ParseError(t *testing.T) {
	c := newTestServer(t)

	_, err := c.UploadReader(context.Background(), "empty.csv", strings.NewReader(""))
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "PARSE_ERROR", apiErr.Code)
	assert.True(t, strings.HasPrefix(apiErr.Message, "Error parsing CSV"))
}

func TestUpload_MissingFile(t *testing.T) {
	c := newTestServer(t)

	_, err := c.Upload(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestExport(t *testing.T) {
	c := newTestServer(t)
	ctx := context.Background()

	var buf bytes.Buffer
	require.ErrorIs(t, c.Export(ctx, "csv", &buf), ErrNoSummary)

	_, err := c.UploadReader(ctx, "costs.csv", strings.NewReader(sampleCSV))
	require.NoError(t, err)

	require.NoError(t, c.Export(ctx, "json", &buf))
	assert.Contains(t, buf.String(), `"total_cost"`)

	err = c.Export(ctx, "xls", &buf)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "BAD_REQUEST", apiErr.Code)
}

func TestError_Is(t *testing.T) {
	busy := &Error{StatusCode: http.StatusConflict, Code: "CONFLICT"}
	assert.ErrorIs(t, busy, ErrBusy)
	assert.NotErrorIs(t, busy, ErrNoSummary)
	assert.Equal(t, "client: unexpected status 502", (&Error{StatusCode: 502}).Error())
}

func TestSend_NonJSONError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gateway down", http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := New(ts.URL).Status(context.Background())
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Empty(t, apiErr.Code)
}
