package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsharvest/internal/domain"
	"newsharvest/internal/models"
)

var testRecords = []models.ArticleRecord{
	{URL: "https://www.spiegel.de/politik/a", Content: "Scholz & Merz <sprechen>", Date: "2023-05-01T10:00:00+02:00"},
	{URL: "https://www.spiegel.de/politik/b", Content: "Über die Wirtschaft", Date: "2022-01-01T00:00:00"},
}

func decodeArray(t *testing.T, b []byte) []models.ArticleRecord {
	t.Helper()
	var got []models.ArticleRecord
	require.NoError(t, json.Unmarshal(b, &got), string(b))
	return got
}

func TestJSONFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s, err := NewJSONFile(dir, "spiegel")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "spiegel.json"), s.Path())

	for _, r := range testRecords {
		require.NoError(t, s.Write(context.Background(), r))
	}
	require.NoError(t, s.Close())

	b, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, testRecords, decodeArray(t, b))
	assert.Contains(t, string(b), "Scholz & Merz <sprechen>")

	assert.ErrorIs(t, s.Write(context.Background(), testRecords[0]), errClosed)
}

func TestJSONFile_Empty(t *testing.T) {
	s, err := NewJSONFile(t.TempDir(), "tonline")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	b, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Empty(t, decodeArray(t, b))
	assert.Equal(t, "[]\n", string(b))
}

func TestJSONLines(t *testing.T) {
	var buf bytes.Buffer
	s := NewJSONLines(&buf)
	for _, r := range testRecords {
		require.NoError(t, s.Write(context.Background(), r))
	}
	require.NoError(t, s.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for i, line := range lines {
		var rec models.ArticleRecord
		require.NoError(t, json.Unmarshal([]byte(line), &rec))
		assert.Equal(t, testRecords[i], rec)
	}
	assert.ErrorIs(t, s.Write(context.Background(), testRecords[0]), errClosed)
}

type fakeS3 struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.in = in
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = b
	return &s3.PutObjectOutput{}, nil
}

func TestS3(t *testing.T) {
	client := &fakeS3{}
	s, err := NewS3(client, models.S3Config{Bucket: "news", Prefix: "raw/"}, "spiegel")
	require.NoError(t, err)
	assert.Equal(t, "raw/spiegel.json", s.Key())

	for _, r := range testRecords {
		require.NoError(t, s.Write(context.Background(), r))
	}
	assert.Nil(t, client.in, "nothing is uploaded before Close")
	require.NoError(t, s.Close())

	require.NotNil(t, client.in)
	assert.Equal(t, "news", aws.ToString(client.in.Bucket))
	assert.Equal(t, "raw/spiegel.json", aws.ToString(client.in.Key))
	assert.Equal(t, testRecords, decodeArray(t, client.body))
}

func TestS3_Errors(t *testing.T) {
	_, err := NewS3(&fakeS3{}, models.S3Config{}, "spiegel")
	assert.ErrorIs(t, err, errNoBucket)

	uploadErr := errors.New("access denied")
	s, err := NewS3(&fakeS3{err: uploadErr}, models.S3Config{Bucket: "news"}, "spiegel")
	require.NoError(t, err)
	assert.ErrorIs(t, s.Close(), uploadErr)
}

func TestNew(t *testing.T) {
	dir := t.TempDir()
	s, err := New(context.Background(), models.OutputConfig{Dir: dir}, "spiegel", io.Discard)
	require.NoError(t, err)
	assert.IsType(t, &JSONFile{}, s)
	require.NoError(t, s.Close())

	s, err = New(context.Background(), models.OutputConfig{Format: FormatJSONL}, "spiegel", io.Discard)
	require.NoError(t, err)
	assert.IsType(t, &JSONLines{}, s)

	_, err = New(context.Background(), models.OutputConfig{Format: "xml"}, "spiegel", io.Discard)
	assert.Error(t, err)
}

func TestShared(t *testing.T) {
	var buf bytes.Buffer
	shared := NewShared(NewJSONLines(&buf))
	a, b := shared.Handle(), shared.Handle()

	var wg sync.WaitGroup
	for _, h := range []domain.Sink{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				assert.NoError(t, h.Write(context.Background(), testRecords[i%2]))
			}
		}()
	}
	wg.Wait()

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	assert.ErrorIs(t, a.Write(context.Background(), testRecords[0]), errClosed)
	require.NoError(t, b.Write(context.Background(), testRecords[0]), "other handle stays usable")
	require.NoError(t, b.Close())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 101)
	for _, line := range lines {
		var rec models.ArticleRecord
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
	}
}
