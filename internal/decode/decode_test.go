package decode_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Raikerian/encodec-explorer/internal/codes"
	"github.com/Raikerian/encodec-explorer/internal/decode"
	"github.com/Raikerian/encodec-explorer/pkg/audio"
)

// rampDecoder returns a ramp per repeated copy so the two kept windows are
// distinguishable: copy k holds the constant value k.
type rampDecoder struct{}

func (rampDecoder) Decode(_ context.Context, rows [][]uint32) ([]float32, error) {
	n := len(rows[0]) * audio.FragmentSize
	out := make([]float32, n)
	quarter := n / decode.Repeats
	for i := range out {
		out[i] = float32(i / quarter)
	}
	return out, nil
}

func TestStitcherLength(t *testing.T) {
	s := decode.NewStitcher(decode.NewToneDecoder(1))

	for layers := 1; layers <= 3; layers++ {
		for frags := 1; frags <= 4; frags++ {
			g, err := codes.NewGrid(layers, frags)
			require.NoError(t, err)
			require.NoError(t, g.Set(0, 0, 100))

			pcm, err := s.Decode(context.Background(), g)
			require.NoError(t, err)
			assert.Len(t, pcm, frags*audio.FragmentSize, "layers=%d frags=%d", layers, frags)
			assert.InDelta(t, 0, audio.Mean(pcm), 1e-5)
		}
	}
}

func TestCrossfadeEndpoints(t *testing.T) {
	mid1 := []float32{10, 10, 10, 10, 10}
	mid2 := []float32{20, 20, 20, 20, 20}

	// The mean is removed afterwards; compare against the blended values
	// shifted by the same mean (15).
	out := decode.Crossfade(mid1, mid2)
	require.Len(t, out, 5)
	assert.InDelta(t, 20-15, out[0], 1e-5, "position 0 takes mid2")
	assert.InDelta(t, 10-15, out[4], 1e-5, "last position takes mid1")
	assert.InDelta(t, 0, out[2], 1e-5)
	assert.InDelta(t, 0, audio.Mean(out), 1e-6)
}

func TestStitcherUsesMiddleWindows(t *testing.T) {
	s := decode.NewStitcher(rampDecoder{})

	pcm, err := s.Decode(context.Background(), codes.New())
	require.NoError(t, err)

	// mid1 == 1, mid2 == 2, blended runs from 2 down to 1 with mean 1.5.
	assert.InDelta(t, 0.5, pcm[0], 1e-5)
	assert.InDelta(t, -0.5, pcm[len(pcm)-1], 1e-5)
}

func TestStitcherRejectsWrongLength(t *testing.T) {
	short := decode.DecoderFunc(func(context.Context, [][]uint32) ([]float32, error) {
		return make([]float32, 10), nil
	})
	_, err := decode.NewStitcher(short).Decode(context.Background(), codes.New())
	assert.ErrorIs(t, err, decode.ErrSampleCount)
}

func TestStitcherPropagatesDecodeError(t *testing.T) {
	boom := errors.New("boom")
	failing := decode.DecoderFunc(func(context.Context, [][]uint32) ([]float32, error) {
		return nil, boom
	})
	_, err := decode.NewStitcher(failing).Decode(context.Background(), codes.New())
	assert.ErrorIs(t, err, boom)
}

func TestToneDecoderDeterministic(t *testing.T) {
	rows := [][]uint32{{5, 500}, {17, 3}}
	a, err := decode.NewToneDecoder(7).Decode(context.Background(), rows)
	require.NoError(t, err)
	b, err := decode.NewToneDecoder(7).Decode(context.Background(), rows)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 2*audio.FragmentSize)
	assert.Less(t, audio.Peak(a[:2]), audio.Peak(a[len(a)-audio.FragmentSize:]),
		"output should start from rest")
}

func TestToneDecoderCodeChangesOutput(t *testing.T) {
	d := decode.NewToneDecoder(0)
	a, err := d.Decode(context.Background(), [][]uint32{{5}})
	require.NoError(t, err)
	b, err := d.Decode(context.Background(), [][]uint32{{500}})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestModelLoadsOnce(t *testing.T) {
	var calls atomic.Int32
	m := decode.NewModel(func() (decode.Decoder, error) {
		calls.Add(1)
		return decode.NewToneDecoder(0), nil
	}, zaptest.NewLogger(t))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dec, err := m.Get()
			assert.NoError(t, err)
			assert.NotNil(t, dec)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), calls.Load())
}

func TestModelCachesLoadError(t *testing.T) {
	var calls int
	boom := errors.New("weights missing")
	m := decode.NewModel(func() (decode.Decoder, error) {
		calls++
		return nil, boom
	}, zaptest.NewLogger(t))

	_, err := m.Get()
	assert.ErrorIs(t, err, boom)
	_, err = m.Get()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestLoaderFor(t *testing.T) {
	_, err := decode.LoaderFor("tone", 0)
	assert.NoError(t, err)
	_, err = decode.LoaderFor("encodec", 0)
	assert.ErrorIs(t, err, decode.ErrUnknownDecoder)
}

func TestCacheCopies(t *testing.T) {
	c, err := decode.NewCache(2)
	require.NoError(t, err)

	g := codes.New()
	pcm := []float32{1, 2, 3}
	c.Add(g, pcm)
	pcm[0] = 99

	got, ok := c.Get(g)
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, got)

	got[1] = 42
	again, _ := c.Get(g)
	assert.Equal(t, float32(2), again[1])
}

func TestCacheEvictsAndDisables(t *testing.T) {
	c, err := decode.NewCache(1)
	require.NoError(t, err)

	a := codes.New()
	b := codes.New()
	require.NoError(t, b.Set(0, 0, 1))

	c.Add(a, []float32{1})
	c.Add(b, []float32{2})
	_, ok := c.Get(a)
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	off, err := decode.NewCache(0)
	require.NoError(t, err)
	off.Add(a, []float32{1})
	_, ok = off.Get(a)
	assert.False(t, ok)
}
