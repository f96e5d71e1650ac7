package printer

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heapkit/heapkit/heap/alloc"
	"github.com/heapkit/heapkit/heap/mem"
	"github.com/heapkit/heapkit/heap/sizeclass"
)

func newManager(t *testing.T) *alloc.Manager {
	t.Helper()
	m, err := alloc.New(alloc.NewSparse(mem.NewSys()), alloc.Config{})
	require.NoError(t, err)
	return m
}

func TestStatsText(t *testing.T) {
	m := newManager(t)
	_, _, err := m.Malloc(100000)
	require.NoError(t, err)

	var buf bytes.Buffer
	p := New(&buf, DefaultOptions())
	require.NoError(t, p.Stats(m))

	out := buf.String()
	require.Contains(t, out, "usage")
	require.Contains(t, out, "capacity")
	require.Contains(t, out, "peak usage")
	require.Contains(t, out, "100,000", "numbers are locale-grouped")
	require.NotContains(t, out, "slabs carved", "ops are off by default")
}

func TestStatsTextWithOps(t *testing.T) {
	m := newManager(t)
	_, _, err := m.Malloc(64)
	require.NoError(t, err)

	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.ShowPeaks = false
	opts.ShowOps = true
	require.NoError(t, New(&buf, opts).Stats(m))

	out := buf.String()
	require.Contains(t, out, "slabs carved")
	require.Contains(t, out, "slow path")
	require.NotContains(t, out, "peak usage")
}

func TestStatsJSON(t *testing.T) {
	m := newManager(t)
	_, _, err := m.Malloc(1024)
	require.NoError(t, err)

	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Format = FormatJSON
	opts.ShowOps = true
	require.NoError(t, New(&buf, opts).Stats(m))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Equal(t, float64(1024), doc["usage"])
	require.Contains(t, doc, "capacity")
	ops, ok := doc["ops"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, float64(1), ops["slabs_carved"])
}

func TestClassesText(t *testing.T) {
	tab := sizeclass.MustNew(sizeclass.DefaultConfig)

	var buf bytes.Buffer
	require.NoError(t, New(&buf, DefaultOptions()).Classes(tab))

	out := buf.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	// Header, one row per class, summary footer.
	require.Len(t, lines, tab.NumClasses()+2)
	require.Contains(t, lines[0], "index")
	require.Contains(t, out, "small")
	require.Contains(t, out, "big")
	require.Contains(t, lines[len(lines)-1], "quantum 16")
}

func TestClassesJSON(t *testing.T) {
	tab := sizeclass.MustNew(sizeclass.DefaultConfig)

	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Format = FormatJSON
	require.NoError(t, New(&buf, opts).Classes(tab))

	var doc struct {
		Quantum int `json:"quantum"`
		Classes []struct {
			Index int    `json:"index"`
			Size  int    `json:"size"`
			Path  string `json:"path"`
		} `json:"classes"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Equal(t, tab.Quantum(), doc.Quantum)
	require.Len(t, doc.Classes, tab.NumClasses())
	require.Equal(t, 16, doc.Classes[0].Size)
	require.Equal(t, "small", doc.Classes[0].Path)
	require.Equal(t, "big", doc.Classes[len(doc.Classes)-1].Path)
}

func TestNewDefaultsEmptyOptions(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, Options{})
	require.Equal(t, FormatText, p.opts.Format)
	require.NoError(t, p.Classes(sizeclass.MustNew(sizeclass.DefaultConfig)))
	require.NotEmpty(t, buf.String())
}
