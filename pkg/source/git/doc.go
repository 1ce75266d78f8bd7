// Package git validates descriptors kept in a Git repository.
//
// Repository wraps a local go-git checkout: Clone (or reopen), Pull with a
// per-operation timeout, list the descriptors under the configured path and
// diff two commits. Authentication is selected by git.auth.type: "none",
// "token" (HTTPS basic auth) or "ssh" (private key file, mode 0600 or
// stricter).
//
// Poller drives `kae watch --git`. Each tick pulls the tracked branch; when
// descriptor files changed it hands them to a watch.Handler, so the same
// handler serves file and Git watching:
//
//	repo, err := git.NewRepository(&cfg.Git, collector)
//	if err != nil {
//	    return err
//	}
//	if err := repo.Clone(ctx); err != nil {
//	    return err
//	}
//	poller := git.NewPoller(repo, git.PollerConfig{
//	    Interval:   cfg.Git.Poll.Interval,
//	    Extensions: cfg.Watch.Extensions,
//	})
//	return poller.Run(ctx, handle)
package git
