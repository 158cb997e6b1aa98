package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"boxer-arena/internal/game"
)

// LoadBalance returns the default balance, overlaid with the YAML file at
// path when one is given. Unknown keys are rejected so a typo can't
// silently fall back to a default.
func LoadBalance(path string) (game.Balance, error) {
	if path == "" {
		return game.DefaultBalance(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return game.Balance{}, fmt.Errorf("read balance file: %w", err)
	}

	b, err := ParseBalance(data)
	if err != nil {
		return game.Balance{}, fmt.Errorf("balance file %s: %w", path, err)
	}
	return b, nil
}

// ParseBalance decodes a YAML overlay onto the default balance and
// validates the result.
func ParseBalance(data []byte) (game.Balance, error) {
	b := game.DefaultBalance()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil && err != io.EOF {
		return game.Balance{}, fmt.Errorf("decode: %w", err)
	}

	if err := b.Validate(); err != nil {
		return game.Balance{}, fmt.Errorf("invalid balance: %w", err)
	}
	return b, nil
}

// EncodeBalance renders a balance as YAML.
func EncodeBalance(b game.Balance) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(b); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
