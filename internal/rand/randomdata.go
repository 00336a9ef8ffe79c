// Copyright © 2024 Datatree Authors

// Package rand generates throwaway random payloads for tests.
package rand

import (
	"bytes"
	"math/rand"
	"sync"
	"time"
)

var (
	seedOnce    sync.Once
	lettersOnce sync.Once
	mu          sync.Mutex
	rgen        *rand.Rand
	letters     []byte
)

func seed() {
	rgen = rand.New(rand.NewSource(time.Now().UnixNano())) // #nosec
}

// Bytes returns n random bytes.
func Bytes(n int) []byte {
	seedOnce.Do(seed)
	buf := make([]byte, n)
	mu.Lock()
	_, _ = rgen.Read(buf)
	mu.Unlock()
	return buf
}

// String returns a random string of length n.
func String(n int) string {
	return string(Bytes(n))
}

func makeLetters() {
	// padded with an extra "a" so the table covers the full uint8 range
	letters = bytes.Repeat([]byte("abcdefghijklmnopqrstuvwxyz0123456789a"), 7)
}

// LetterBytes returns n random bytes drawn from [a-z0-9].
func LetterBytes(n int) []byte {
	lettersOnce.Do(makeLetters)
	buf := Bytes(n)
	for i, b := range buf {
		buf[i] = letters[b]
	}
	return buf
}

// LetterString returns a random [a-z0-9] string of length n.
func LetterString(n int) string {
	return string(LetterBytes(n))
}
