package gen

import (
	"path"
	"runtime"
)

// Config configures code generation.
type Config struct {
	// Package is the import path of the generated package. Classes declared
	// in the same package are referenced unqualified.
	Package string
	// Name is the package name; it defaults to the last element of Package.
	Name string
	// Target is the directory files are written to.
	Target string
	// Header is the comment written at the top of each file.
	Header string
	// Workers bounds the number of files generated concurrently.
	Workers int
}

// Option configures code generation.
type Option func(*Config) error

// WithPackage sets the import path of the generated package.
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		c.Package = pkg
		return nil
	}
}

// WithName sets the package name of the generated files.
func WithName(name string) Option {
	return func(c *Config) error {
		if name == "" {
			return NewConfigError("Name", nil, "name cannot be empty")
		}
		c.Name = name
		return nil
	}
}

// WithTarget sets the output directory.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithHeader sets the file header comment.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithWorkers sets the number of parallel workers.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return NewConfigError("Workers", n, "workers must be positive")
		}
		c.Workers = n
		return nil
	}
}

func newConfig(opts []Option) (*Config, error) {
	c := &Config{
		Header:  "Code generated by ogm. DO NOT EDIT.",
		Workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.Package == "" {
		return nil, NewConfigError("Package", nil, "missing package import path")
	}
	if c.Name == "" {
		c.Name = path.Base(c.Package)
	}
	return c, nil
}
