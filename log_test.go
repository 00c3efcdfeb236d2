package pe

import (
	"bytes"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wanglei-coder/clrmeta/internal/testimage"
)

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetLevel(logrus.TraceLevel)
	SetLogger(l)
	defer SetLogger(nil)

	_, err := Parse(testimage.Build(testimage.Default()))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "parsed MS-DOS stub")
	assert.Contains(t, buf.String(), "parsed CLI header")

	SetLogger(nil)
	buf.Reset()
	_, err = Parse(testimage.Build(testimage.Default()))
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestSetLoggerWhileParsing(t *testing.T) {
	defer SetLogger(nil)
	img := testimage.Build(testimage.Default())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			l := logrus.New()
			l.SetOutput(io.Discard)
			l.SetLevel(logrus.TraceLevel)
			SetLogger(l)
		}()
		go func() {
			defer wg.Done()
			_, err := Parse(img)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
