package hypergraph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVote(t *testing.T) {
	var v Vote[int]
	assert.NoError(t, v.run(1), "no voters accepts")

	var seen []int
	c1 := v.Subscribe(func(n int) error { seen = append(seen, n); return nil })
	c2 := v.Subscribe(func(n int) error {
		if n < 0 {
			return errors.New("negative")
		}
		return nil
	})
	assert.Equal(t, 2, v.Len())

	assert.NoError(t, v.run(3))
	assert.EqualError(t, v.run(-1), "negative")
	assert.Equal(t, []int{3, -1}, seen)

	c2()
	assert.NoError(t, v.run(-1))
	c1()
	c1()
	assert.Equal(t, 0, v.Len())
}

func TestNotify(t *testing.T) {
	var n Notify[string]
	var got []string
	n.Subscribe(func(s string) { got = append(got, "a:"+s) })
	cancel := n.Subscribe(func(s string) { got = append(got, "b:"+s) })
	n.Subscribe(func(s string) { got = append(got, "c:"+s) })

	n.fire("1")
	cancel()
	n.fire("2")
	assert.Equal(t, []string{"a:1", "b:1", "c:1", "a:2", "c:2"}, got)
	assert.Equal(t, 2, n.Len())
}

func TestNotify_SubscribeDuringFire(t *testing.T) {
	var n Notify[int]
	calls := 0
	n.Subscribe(func(int) {
		calls++
		n.Subscribe(func(int) { calls++ })
	})
	n.fire(0)
	assert.Equal(t, 1, calls, "listeners added while firing run from the next event on")
}
