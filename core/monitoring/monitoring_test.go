package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordMonitor struct {
	errs   []error
	panics []any
	tags   map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = tags
}

func (r *recordMonitor) CapturePanic(p any, tags map[string]string) {
	r.panics = append(r.panics, p)
	r.tags = tags
}

func (r *recordMonitor) Flush(time.Duration) {}

func TestCaptureException(t *testing.T) {
	mon := &recordMonitor{}
	Init(mon)
	t.Cleanup(func() { Init(nil) })

	CaptureException(nil, nil)
	CaptureException(errors.New("boom"), map[string]string{"module": "test"})
	require.Len(t, mon.errs, 1)
	assert.Equal(t, "test", mon.tags["module"])
	Flush(time.Millisecond)
}

func TestGuard(t *testing.T) {
	mon := &recordMonitor{}
	Init(mon)
	t.Cleanup(func() { Init(nil) })

	err := Guard(map[string]string{"op": "resolve"}, func() error { panic("bad index") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad index")
	require.Len(t, mon.panics, 1)
	assert.Equal(t, "resolve", mon.tags["op"])

	want := errors.New("plain")
	assert.Equal(t, want, Guard(nil, func() error { return want }))
	assert.Len(t, mon.panics, 1)
}

func TestInitNilRestoresNop(t *testing.T) {
	Init(nil)
	_, ok := get().(NopMonitor)
	assert.True(t, ok)
}
