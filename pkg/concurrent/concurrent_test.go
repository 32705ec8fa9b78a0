package concurrent

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScatterRunsAll(t *testing.T) {
	items := make([]int, 100)
	for i := range items {
		items[i] = i
	}

	out := make([]int, len(items))
	join := Scatter(items, 8, func(i int, v int) {
		out[i] = v * 2
	})
	join.Wait()

	for i, v := range out {
		require.Equal(t, i*2, v)
	}
}

func TestScatterIsNonBlocking(t *testing.T) {
	gate := make(chan struct{})
	var done atomic.Int32

	// More items than workers: dispatch must still return immediately.
	items := make([]int, 16)
	join := Scatter(items, 2, func(int, int) {
		<-gate
		done.Add(1)
	})

	require.Equal(t, int32(0), done.Load())
	close(gate)
	join.Wait()
	require.Equal(t, int32(16), done.Load())
}

func TestCombineWaitsOnAllTokens(t *testing.T) {
	var count atomic.Int32
	j1 := Scatter(make([]int, 5), 2, func(int, int) { count.Add(1) })
	j2 := Scatter(make([]int, 7), 2, func(int, int) { count.Add(1) })

	Combine(j1, j2).Wait()
	require.Equal(t, int32(12), count.Load())

	// Nil and empty tokens are harmless.
	Combine(nil, &Join{}).Wait()
	var none *Join
	none.Wait()
}

func TestScatterEmpty(t *testing.T) {
	join := Scatter(nil, 4, func(int, struct{}) { t.Fatal("must not run") })
	join.Wait()
}

func TestScatterErr(t *testing.T) {
	boom := errors.New("boom")
	var ran atomic.Int32

	j := ScatterErr(make([]int, 10), 4, func(i int, _ int) error {
		ran.Add(1)
		if i == 3 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, j.Wait(), boom)
	require.Equal(t, int32(10), ran.Load(), "remaining items still run after an error")

	var nilJoin *ErrJoin
	require.NoError(t, nilJoin.Wait())
}

func TestJoinWaitBlocksUntilDone(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	join := Scatter([]int{0}, 1, func(int, int) {
		close(started)
		<-release
	})

	<-started
	waited := make(chan struct{})
	go func() {
		join.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("Wait returned before work finished")
	case <-time.After(20 * time.Millisecond):
	}

	close(release)
	select {
	case <-waited:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after work finished")
	}
}
