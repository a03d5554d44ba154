package emailbuilder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/osteele/liquid"
)

// Dynamic-content mode: templates that opt in may carry Liquid markup
// ({% if %}, {% for %}, filters) in text-bearing content. Rendering runs
// through a guarded engine so a pathological template cannot hang an export.

const (
	defaultLiquidTimeout  = 5 * time.Second
	defaultLiquidMaxBytes = 100 * 1024
)

// LiquidEngine wraps the Liquid engine with size and timeout protection.
type LiquidEngine struct {
	timeout time.Duration
	maxSize int
	engine  *liquid.Engine
}

// NewLiquidEngine creates a guarded engine with default limits.
func NewLiquidEngine() *LiquidEngine {
	return &LiquidEngine{
		timeout: defaultLiquidTimeout,
		maxSize: defaultLiquidMaxBytes,
		engine:  liquid.NewEngine(),
	}
}

// Render evaluates Liquid markup in content against the given data. Content
// without Liquid tag markers passes through untouched.
func (e *LiquidEngine) Render(content string, data map[string]interface{}) (string, error) {
	if !strings.Contains(content, "{%") && !strings.Contains(content, "{{") {
		return content, nil
	}
	if len(content) > e.maxSize {
		return "", fmt.Errorf("dynamic content size (%d bytes) exceeds maximum (%d bytes)", len(content), e.maxSize)
	}

	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	resultChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				errorChan <- fmt.Errorf("panic during liquid rendering: %v", r)
			}
		}()

		rendered, err := e.engine.ParseAndRenderString(content, data)
		if err != nil {
			errorChan <- fmt.Errorf("liquid rendering failed: %w", err)
			return
		}
		resultChan <- rendered
	}()

	select {
	case result := <-resultChan:
		return result, nil
	case err := <-errorChan:
		return "", err
	case <-ctx.Done():
		return "", fmt.Errorf("liquid rendering timeout after %v", e.timeout)
	}
}
