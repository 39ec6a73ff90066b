package uuid

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid"
)

// alphabet keeps generated IDs safe for cookies, redis keys and urls without escaping
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Generator UUID generator interface
type Generator interface {
	Generate() (string, error)
}

// NanoIDGenerator UUID implementation using NanoID
type NanoIDGenerator struct {
	Length int
	Prefix string
}

var _ Generator = &NanoIDGenerator{}

// NewNanoIDGenerator create a new `NanoIDGenerator` instance
func NewNanoIDGenerator(length int) *NanoIDGenerator {
	if length < 1 {
		panic("length must be larger than 1")
	}
	return &NanoIDGenerator{Length: length}
}

// WithPrefix returns a copy whose IDs start with prefix, eg. "act_"
func (ns NanoIDGenerator) WithPrefix(prefix string) *NanoIDGenerator {
	ns.Prefix = prefix
	return &ns
}

// Generate generate UUID
func (ns *NanoIDGenerator) Generate() (string, error) {
	id, err := gonanoid.Generate(alphabet, ns.Length)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return ns.Prefix + id, nil
}
