package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads path over Defaults. A missing file yields the defaults when
// ignoreNotFound is set.
func Load(path string, ignoreNotFound bool) (Config, error) {
	c := Defaults()
	if err := c.loadFromFile(path, ignoreNotFound); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Decode reads YAML from r over the receiver. Unknown keys are rejected.
// Phrase keys are upper-cased and replace the receiver's phrase for the
// same sign.
func (c *Config) Decode(r io.Reader) error {
	base := c.Announce.Phrases
	c.Announce.Phrases = nil

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && err != io.EOF {
		c.Announce.Phrases = base
		return err
	}

	c.Announce.Phrases = normalizePhrases(base, c.Announce.Phrases)
	return nil
}

// Encode writes c as YAML.
func (c *Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}

// Save writes c to path, creating the directory.
func (c *Config) Save(path string) error {
	_ = os.MkdirAll(filepath.Dir(path), 0700)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("cannot open configuration file %q: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err := c.Encode(f); err != nil {
		return fmt.Errorf("cannot write file %q: %w", path, err)
	}

	return nil
}

func (c *Config) loadFromFile(path string, ignoreNotFound bool) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) && ignoreNotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cannot open configuration file %q: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	if err := c.Decode(f); err != nil {
		return fmt.Errorf("cannot load configuration file %q: %w", path, err)
	}

	return nil
}
