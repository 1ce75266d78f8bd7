// Package watch re-validates descriptor files when they change.
//
// A Watcher wraps fsnotify. Events for files without a descriptor
// extension, hidden files and chmod-only events are dropped; the rest are
// collected per path and delivered as one batch once no event has arrived
// for the debounce interval:
//
//	w, err := watch.New(watch.NewConfig("deploy/", cfg.Watch), logger, collector)
//	if err != nil {
//	    return err
//	}
//	defer w.Stop()
//
//	err = w.Watch(ctx, func(ctx context.Context, events []watch.Event) {
//	    for _, ev := range events {
//	        if !ev.Removed {
//	            report(engine.ValidateFile(ctx, ev.Path))
//	        }
//	    }
//	})
package watch
