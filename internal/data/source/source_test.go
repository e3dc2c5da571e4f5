package source

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/penwyp/go-wesgr/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, s *Stream) ([]interface{}, error) {
	t.Helper()
	var values []interface{}
	for {
		v, err := s.Next()
		if errors.Is(err, io.EOF) {
			return values, nil
		}
		if err != nil {
			return values, err
		}
		values = append(values, v)
	}
}

func TestStreamConcatenatedValues(t *testing.T) {
	input := `{"kind":"begin","token":1}{"kind":"end","token":1}
  {"kind":"instant"}   `

	s := NewStream("test", strings.NewReader(input))
	values, err := drain(t, s)

	require.NoError(t, err)
	require.Len(t, values, 3)
	assert.Equal(t, "begin", values[0].(map[string]interface{})["kind"])
	assert.Equal(t, json.Number("1"), values[0].(map[string]interface{})["token"])
	assert.Equal(t, 3, s.Values())
}

func TestStreamKeepsLargeIntegers(t *testing.T) {
	s := NewStream("test", strings.NewReader(`{"ts":9007199254740993}`))
	v, err := s.Next()
	require.NoError(t, err)

	n, ok := v.(map[string]interface{})["ts"].(json.Number)
	require.True(t, ok)
	i, err := n.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), i)
}

func TestStreamEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\t"} {
		s := NewStream("empty", strings.NewReader(input))
		_, err := s.Next()
		assert.ErrorIs(t, err, io.EOF)
	}
}

func TestStreamStructuralCharactersInStrings(t *testing.T) {
	input := `{"text":"} ] { [ \\\" ,"}"plain"[1,"]"]  42 true null`

	s := NewStream("test", strings.NewReader(input))
	values, err := drain(t, s)
	require.NoError(t, err)
	require.Len(t, values, 6)
	assert.Equal(t, `} ] { [ \" ,`, values[0].(map[string]interface{})["text"])
	assert.Equal(t, "plain", values[1])
	assert.Equal(t, []interface{}{json.Number("1"), "]"}, values[2])
	assert.Equal(t, json.Number("42"), values[3])
	assert.Equal(t, true, values[4])
	assert.Nil(t, values[5])
}

func TestStreamSmallReads(t *testing.T) {
	input := `{"kind":"begin","entity":"output.0","token":1,"ts":0,"label":"repaint"}` + "\n" +
		`{"kind":"end","token":1,"ts":16}`

	s := NewStream("onebyte", iotest.OneByteReader(strings.NewReader(input)))
	values, err := drain(t, s)
	require.NoError(t, err)
	assert.Len(t, values, 2)
}

func TestStreamMalformedJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"garbage", `{"kind":"begin"} not-json`},
		{"truncated", `{"kind":"begin","ts":`},
		{"truncated after a value", `{"kind":"begin","token":1,"ts":0} {"kind":"end","token":1,"ts":`},
		{"truncated string", `{"kind":"info","text":"half`},
		{"truncated escape", `"abc\`},
		{"truncated nested", `{"a":[1,2,{"b":`},
		{"unbalanced", `{"kind":"begin"]`},
		{"stray closer", `{"kind":"info"} }`},
		{"stray comma", `{"kind":"info"},{"kind":"info"}`},
		{"bad literal", `tru`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStream("bad", strings.NewReader(tt.input))
			_, err := drain(t, s)
			require.Error(t, err)
			assert.True(t, errs.Is(err, errs.KindDecode), "got %v", err)

			// errors are sticky
			_, again := s.Next()
			assert.ErrorIs(t, again, io.EOF)
		})
	}
}

func TestStreamReadFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	s := NewStream("failing", iotest.ErrReader(boom))

	_, err := s.Next()
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindSource))
	assert.ErrorIs(t, err, boom)
}

func TestStreamReadFailureMidway(t *testing.T) {
	boom := errors.New("connection reset")
	r := io.MultiReader(strings.NewReader(`{"kind":"instant"} {"kind":`), iotest.ErrReader(boom))
	s := NewStream("failing", r)

	_, err := drain(t, s)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindSource), "got %v", err)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "timeline.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"kind":"info"}`), 0644))

	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.Next()
	require.NoError(t, err)
	assert.Equal(t, "info", v.(map[string]interface{})["kind"])

	_, err = f.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindSource))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
