package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"k8s.io/klog/v2"

	"suratgen/templatestore"
)

// runWatch seeds the catalog, then re-imports every .docx created or changed
// in the template directory once it has been quiet for the debounce period.
func runWatch(ctx context.Context, a *app) error {
	n, err := a.store.SeedFromDirectory()
	if err != nil && !errors.Is(err, templatestore.ErrSeedIncomplete) {
		return err
	}
	if err != nil {
		klog.Warningf("seed: %v", err)
	}
	fmt.Printf("🌱  %d template(s) imported\n", n)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	for _, p := range dedupe([]string{a.store.Dir()}) {
		if err := watcher.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
	}

	debounce := a.cfg.Templates.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}

	var (
		mu      sync.Mutex
		pending = map[string]struct{}{}
		t       *time.Timer
	)
	flush := func() {
		mu.Lock()
		paths := make([]string, 0, len(pending))
		for p := range pending {
			paths = append(paths, p)
		}
		pending = map[string]struct{}{}
		mu.Unlock()

		for _, p := range paths {
			reimport(a, p)
		}
	}
	schedule := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		pending[path] = struct{}{}
		if t != nil {
			t.Stop()
		}
		t = time.AfterFunc(debounce, flush)
	}

	fmt.Println("👀  watching " + a.store.Dir() + " (Ctrl+C to stop)")
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if ignore(ev.Name) || !hasAnySuffix(strings.ToLower(ev.Name), ".docx") {
				continue
			}
			schedule(ev.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			klog.Warningf("watch error: %v", err)
		case <-ctx.Done():
			mu.Lock()
			if t != nil {
				t.Stop()
			}
			mu.Unlock()
			fmt.Print("\r\033[K👋  bye\n")
			return nil
		}
	}
}

func reimport(a *app, path string) {
	_, known := a.store.Entry(filepath.Base(path))
	e, err := a.store.ImportFile(path, !known)
	if err != nil {
		klog.Warningf("import %s: %v", filepath.Base(path), err)
		return
	}
	fmt.Printf("🔄  %s imported (v%d)\n", e.Name, e.Version)
}

// ignore - editor lock files and temporaries.
func ignore(name string) bool {
	base := strings.ToLower(filepath.Base(name))
	return strings.HasPrefix(base, "~$") ||
		strings.HasPrefix(base, ".~lock") ||
		strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".tmp") ||
		strings.HasSuffix(base, ".swp")
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range in {
		if p == "" {
			continue
		}
		abs, _ := filepath.Abs(p)
		if _, ok := seen[abs]; !ok {
			seen[abs] = struct{}{}
			out = append(out, abs)
		}
	}
	return out
}

func hasAnySuffix(s string, exts ...string) bool {
	for _, e := range exts {
		if strings.HasSuffix(s, e) {
			return true
		}
	}
	return false
}
