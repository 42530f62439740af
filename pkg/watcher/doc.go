// Package watcher re-runs work when input or configuration files change.
//
// FileWatcher watches the parent directories of the given files with
// fsnotify and filters events down to those files. Bursts of writes are
// collapsed by a Debouncer so a file rewritten in several chunks triggers a
// single callback.
//
//	fw, err := watcher.New(&watcher.Config{Paths: []string{"revisions.csv", "revprune.yaml"}})
//	if err != nil {
//	    return err
//	}
//	defer fw.Stop()
//
//	err = fw.Watch(ctx, func(path string) error {
//	    return reevaluate(ctx)
//	})
package watcher
