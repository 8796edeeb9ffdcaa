package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buffered(t *testing.T, status int, body string) *BufferedResponse {
	t.Helper()
	resp, err := newBufferedResponse(testURL, newResponse(status, newTrackingBody(body)))
	require.NoError(t, err)
	return resp
}

func TestBufferedResponseAccessorsAreRepeatable(t *testing.T) {
	resp := buffered(t, http.StatusOK, "héllo")

	assert.Equal(t, "héllo", resp.Text())
	assert.Equal(t, []byte("héllo"), resp.Bytes())
	assert.Equal(t, "héllo", resp.Text())
	assert.Equal(t, len("héllo"), resp.Len())
}

func TestBufferedResponseBytesIsACopy(t *testing.T) {
	resp := buffered(t, http.StatusOK, "abc")

	raw := resp.Bytes()
	raw[0] = 'z'
	assert.Equal(t, "abc", resp.Text())
}

func TestBufferedResponseEmptyBody(t *testing.T) {
	resp, err := newBufferedResponse(testURL, &http.Response{StatusCode: http.StatusNoContent})
	require.NoError(t, err)

	assert.Equal(t, "", resp.Text())
	assert.NotNil(t, resp.Bytes())
	assert.Empty(t, resp.Bytes())

	var v map[string]any
	var malformed *MalformedBodyError
	assert.ErrorAs(t, resp.JSON(&v), &malformed)
}

func TestBufferedResponseInvalidUTF8(t *testing.T) {
	resp := buffered(t, http.StatusOK, "ok\xff\xfe!")

	assert.Equal(t, "ok�!", resp.Text())
	assert.Equal(t, []byte("ok\xff\xfe!"), resp.Bytes())
}

func TestBufferedResponseJSON(t *testing.T) {
	resp := buffered(t, http.StatusOK, `{"id":1,"tags":["a","b"]}`)

	var first, second struct {
		ID   int      `json:"id"`
		Tags []string `json:"tags"`
	}
	require.NoError(t, resp.JSON(&first))
	require.NoError(t, resp.JSON(&second))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, first.ID)
	assert.Equal(t, []string{"a", "b"}, first.Tags)
}

func TestBufferedResponseMalformedJSON(t *testing.T) {
	resp := buffered(t, http.StatusBadGateway, "<html>upstream down</html>")

	var v map[string]any
	err := resp.JSON(&v)
	require.Error(t, err)

	var malformed *MalformedBodyError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, testURL, malformed.URL)
	assert.Equal(t, http.StatusBadGateway, malformed.StatusCode)
	assert.Equal(t, "<html>upstream down</html>", malformed.Body)

	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)

	assert.Contains(t, err.Error(), testURL)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "<html>upstream down</html>")

	// The buffer survives a failed decode.
	assert.Equal(t, "<html>upstream down</html>", resp.Text())
}

func TestBufferedResponseJSONRejectsNonPointer(t *testing.T) {
	resp := buffered(t, http.StatusOK, `{}`)

	var v map[string]any
	err := resp.JSON(v)
	var invalid *json.InvalidUnmarshalError
	assert.ErrorAs(t, err, &invalid)
}

func TestBufferedResponseKeepsMetadata(t *testing.T) {
	resp := buffered(t, http.StatusCreated, "")

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, http.StatusText(http.StatusCreated), resp.Status)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, testURL, resp.URL)
}

func TestBufferedResponseJSONTypeMismatchIsNotMalformed(t *testing.T) {
	resp := buffered(t, http.StatusOK, `{"id":"x"}`)

	var v struct {
		ID int `json:"id"`
	}
	err := resp.JSON(&v)
	require.Error(t, err)

	var typeErr *json.UnmarshalTypeError
	assert.ErrorAs(t, err, &typeErr)
	var malformed *MalformedBodyError
	assert.False(t, errors.As(err, &malformed))
}

func TestBufferedResponseOwnsItsHeader(t *testing.T) {
	raw := newResponse(http.StatusOK, newTrackingBody("ok"))
	resp, err := newBufferedResponse(testURL, raw)
	require.NoError(t, err)

	raw.Header.Set("Content-Type", "text/plain")
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}
