package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStack_Push(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	assert.True(s.Empty())
	assert.False(s.Full())

	assert.NoError(s.Push(0x234))
	assert.False(s.Empty())
	assert.Equal(1, len(s.Data))
	assert.Equal(uint16(0x234), s.Data[0])
}

func TestStack_Pop(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	assert.NoError(s.Push(0x234))
	assert.NoError(s.Push(0xabc))

	val, err := s.Pop()
	assert.NoError(err)
	assert.Equal(uint16(0xabc), val)
	assert.Equal(1, len(s.Data))

	val, err = s.Pop()
	assert.NoError(err)
	assert.Equal(uint16(0x234), val)
	assert.Equal(0, len(s.Data))
}

func TestStack_Pop_Empty(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	val, err := s.Pop()
	assert.ErrorIs(err, ErrStackUnderflow)
	assert.Equal(uint16(0), val)
}

func TestStack_Peek(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	val, ok := s.Peek()
	assert.False(ok)
	assert.Equal(uint16(0), val)

	assert.NoError(s.Push(0x234))
	assert.NoError(s.Push(0xabc))

	val, ok = s.Peek()
	assert.True(ok)
	assert.Equal(uint16(0xabc), val)
	assert.Equal(2, len(s.Data))
}

func TestStack_Capacity(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}

	for i := range STACK_LIMIT {
		assert.False(s.Full())
		assert.NoError(s.Push(uint16(0x200 + 2*i)))
	}

	assert.True(s.Full())
	assert.Equal(STACK_LIMIT, len(s.Data))

	assert.ErrorIs(s.Push(0xfff), ErrStackOverflow)
	assert.Equal(STACK_LIMIT, len(s.Data))

	val, err := s.Pop()
	assert.NoError(err)
	assert.Equal(uint16(0x200+2*(STACK_LIMIT-1)), val)
}

func TestStack_Reset(t *testing.T) {
	assert := assert.New(t)

	s := &Stack{}
	s.Reset()
	assert.True(s.Empty())

	assert.NoError(s.Push(0x234))
	assert.NoError(s.Push(0xabc))
	assert.Equal(2, len(s.Data))

	s.Reset()
	assert.True(s.Empty())
	assert.Equal(0, len(s.Data))
}
