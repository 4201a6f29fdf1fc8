// Package present hands opaque service output to the user: it saves the
// bytes under the output directory and optionally opens them in the
// system viewer. The bytes are never inspected.
package present

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/yildizm/NgramLens/internal/logger"
)

// Opener opens a saved file in an external viewer
type Opener interface {
	Open(path string) error
}

// SystemOpener opens files with the platform's default handler
type SystemOpener struct{}

// Open runs xdg-open, open or start depending on the platform
func (SystemOpener) Open(path string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	// the viewer outlives us; reap it in the background
	go func() { _ = cmd.Wait() }()
	return nil
}

// Result describes where presented output ended up
type Result struct {
	Path   string `json:"path"`
	Opened bool   `json:"opened"`
}

// Presenter saves and opens service output
type Presenter struct {
	dir    string
	open   bool
	opener Opener
	log    *logger.Logger
}

// Option configures a Presenter
type Option func(*Presenter)

// WithOpener replaces the system opener
func WithOpener(opener Opener) Option {
	return func(p *Presenter) { p.opener = opener }
}

// WithLogger sets the presenter logger
func WithLogger(log *logger.Logger) Option {
	return func(p *Presenter) { p.log = log.WithComponent("present") }
}

// New creates a presenter saving into dir ("" means the working directory).
// When open is false output is only saved.
func New(dir string, open bool, opts ...Option) *Presenter {
	p := &Presenter{
		dir:    dir,
		open:   open,
		opener: SystemOpener{},
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Dir returns the output directory
func (p *Presenter) Dir() string {
	if p.dir == "" {
		return "."
	}
	return p.dir
}

// Save writes data under name in the output directory and returns its path
func (p *Presenter) Save(name string, data []byte) (string, error) {
	name = SafeName(name)
	if err := os.MkdirAll(p.Dir(), 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(p.Dir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	p.log.Debug("saved %d bytes to %s", len(data), path)
	return path, nil
}

// Present saves data and then tries to open it. A viewer that cannot be
// started is not an error: the saved file is the fallback.
func (p *Presenter) Present(name string, data []byte) (Result, error) {
	path, err := p.Save(name, data)
	if err != nil {
		return Result{}, err
	}

	result := Result{Path: path}
	if !p.open || p.opener == nil {
		return result, nil
	}

	if err := p.opener.Open(path); err != nil {
		p.log.WarnWithFields("viewer unavailable, output saved instead", []logger.Field{logger.Error(err)})
		return result, nil
	}
	result.Opened = true
	return result, nil
}

// SafeName strips directories and characters that are invalid in file names
func SafeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '|', '?', '*':
			return '_'
		}
		if r < 0x20 {
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." || name == "/" {
		return "output"
	}
	return name
}
