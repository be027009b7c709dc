package id

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsMonotonic(t *testing.T) {
	t.Parallel()

	ids := make([]string, 200)
	for i := range ids {
		ids[i] = New()
	}
	assert.True(t, sort.StringsAreSorted(ids))
	assert.Len(t, ids[0], 26)
}

func TestGeneratorTime(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	g := NewGenerator(1, func() time.Time { return at })

	a, b := g.Next(), g.Next()
	assert.Less(t, a, b)

	got, err := Time(a)
	require.NoError(t, err)
	assert.True(t, at.Equal(got))

	_, err = Time("not-a-ulid")
	assert.Error(t, err)
}

func TestSequence(t *testing.T) {
	t.Parallel()

	next := Sequence("T")
	assert.Equal(t, "T-0001", next())
	assert.Equal(t, "T-0002", next())

	var wg sync.WaitGroup
	seen := sync.Map{}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, dup := seen.LoadOrStore(next(), true)
			assert.False(t, dup)
		}()
	}
	wg.Wait()
}
