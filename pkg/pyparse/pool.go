// Package pyparse parses Python source with tree-sitter and exposes it
// through the symbols.Parsed collaborator interface the inference core
// consumes. It never imports pkg/infer.
package pyparse

import (
	"fmt"
	"log/slog"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/basalt-sh/tycore/pkg/util"
)

// pool manages a set of tree-sitter parsers for concurrent reuse. Every
// parser in the pool is configured for the Python grammar; there is only
// ever one grammar in this package, unlike a multi-language parser pool.
type pool struct {
	parsers chan *sitter.Parser

	mu      sync.Mutex
	created int
	maxSize int

	logger *slog.Logger
}

// PoolConfig bounds how many parsers may be created.
type PoolConfig struct {
	MaxSize int
}

// DefaultPoolConfig sizes the pool the same way this codebase sizes every
// other CPU-bound, CGO-heavy pool.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{MaxSize: util.GetOptimalPoolSize()}
}

func newPool(cfg PoolConfig, logger *slog.Logger) *pool {
	if cfg.MaxSize <= 0 {
		cfg = DefaultPoolConfig()
	}
	return &pool{
		parsers: make(chan *sitter.Parser, cfg.MaxSize),
		maxSize: cfg.MaxSize,
		logger:  logger,
	}
}

func (p *pool) acquire() (*sitter.Parser, error) {
	select {
	case parser := <-p.parsers:
		return parser, nil
	default:
		return p.createOrWait()
	}
}

func (p *pool) createOrWait() (*sitter.Parser, error) {
	p.mu.Lock()
	if p.created < p.maxSize {
		parser := sitter.NewParser()
		if parser == nil {
			p.mu.Unlock()
			return nil, fmt.Errorf("pyparse: failed to create parser")
		}
		parser.SetLanguage(python.GetLanguage())
		p.created++
		p.logger.Debug("created python parser", "pool_size", p.created)
		p.mu.Unlock()
		return parser, nil
	}
	p.mu.Unlock()

	return <-p.parsers, nil
}

func (p *pool) release(parser *sitter.Parser) {
	if parser == nil {
		return
	}
	select {
	case p.parsers <- parser:
	default:
		parser.Close()
		p.logger.Warn("python parser pool full, closing excess parser")
	}
}

func (p *pool) close() {
	close(p.parsers)
	for parser := range p.parsers {
		if parser != nil {
			parser.Close()
		}
	}
}
