package io

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeypad_PressRelease(t *testing.T) {
	assert := assert.New(t)

	kp := &Keypad{}
	for key := range uint8(KEY_COUNT) {
		assert.False(kp.Pressed(key))
	}

	kp.Press(0xa)
	kp.Press(0x3)
	assert.True(kp.Pressed(0xa))
	assert.True(kp.Pressed(0x3))
	assert.False(kp.Pressed(0x4))
	assert.Equal(uint16(1<<0xa|1<<0x3), kp.State())

	kp.Release(0xa)
	assert.False(kp.Pressed(0xa))
	assert.True(kp.Pressed(0x3))

	kp.Set(0x8001)
	assert.True(kp.Pressed(0x0))
	assert.True(kp.Pressed(0xf))
	assert.False(kp.Pressed(0x3))

	// Only the low nibble addresses a key.
	assert.True(kp.Pressed(0x10))
}

func TestKeypad_WaitKey(t *testing.T) {
	assert := assert.New(t)

	kp := &Keypad{}
	kp.Press(0x7)
	kp.Press(0xc)

	key, err := kp.WaitKey(context.Background())
	assert.NoError(err)
	assert.Equal(uint8(0x7), key)

	kp.Set(0)
	go func() {
		time.Sleep(10 * time.Millisecond)
		kp.Press(0xe)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	key, err = kp.WaitKey(ctx)
	assert.NoError(err)
	assert.Equal(uint8(0xe), key)
}

func TestKeypad_WaitKey_Cancel(t *testing.T) {
	assert := assert.New(t)

	kp := &Keypad{}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := kp.WaitKey(ctx)
	assert.ErrorIs(err, context.Canceled)
}
