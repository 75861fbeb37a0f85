package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/matheuskafuri/dbroast/internal/feed"
)

type fakeFetcher struct {
	feeds map[string][]feed.Item
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]feed.Item, error) {
	f.calls = append(f.calls, url)
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	items, ok := f.feeds[url]
	if !ok {
		return nil, fmt.Errorf("fetching %s: no such feed", url)
	}
	return items, nil
}

// fakeGenerator fails any prompt containing one of failOn.
type fakeGenerator struct {
	mu      sync.Mutex
	failOn  []string
	prompts []string
}

var errGeneration = errors.New("generation service unavailable")

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	for _, marker := range g.failOn {
		if strings.Contains(prompt, marker) {
			return "", errGeneration
		}
	}
	return fmt.Sprintf("roast #%d", len(g.prompts)), nil
}

func (g *fakeGenerator) Name() string { return "fake" }

func (g *fakeGenerator) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.prompts)
}

type sleepRecorder struct {
	pauses []time.Duration
}

func (s *sleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.pauses = append(s.pauses, d)
	return nil
}
