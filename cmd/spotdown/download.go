package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/r3labs/diff/v3"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/alanbriolat/spotdown/generic"
	"github.com/alanbriolat/spotdown/internal/logging"
	"github.com/alanbriolat/spotdown/internal/session"
	"github.com/alanbriolat/spotdown/internal/sync_"
)

func downloadCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:      "download",
		Usage:     "download a track, album or playlist",
		ArgsUsage: "URL",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("expected exactly one URL", 2)
			}
			config, err := env.SessionConfig()
			if err != nil {
				return err
			}
			return download(c.Context, c.App.Writer, config, session.Backend(env.client), c.Args().First())
		},
	}
}

func download(ctx context.Context, w io.Writer, config session.Config, b session.Backend, source string) error {
	logger := logging.Logger(ctx).Sugar()

	ses, err := session.New(ctx, config, b)
	if err != nil {
		return err
	}
	defer ses.Close()

	events, err := ses.Subscribe()
	if err != nil {
		return err
	}
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("starting"),
		progressbar.OptionSetPredictTime(false),
	)
	var finished sync_.Event
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for event := range events.Receive() {
			logger.Debugf("event: %T: %v", event, event.State().Phase)
			switch e := event.(type) {
			case session.TaskUpdated:
				logTaskChanges(logger, e.Old, e.New)
				updateBar(bar, e.New)
			case session.TaskFinished:
				updateBar(bar, e.Task)
				finished.Set()
			}
		}
	}()

	item, err := ses.Search(ctx, source)
	if err != nil {
		return err
	}
	printItem(w, item)

	handle, err := ses.Download(ctx)
	if err != nil {
		return err
	}
	logger.Infow("Download started", "task_id", handle.ID, "quality", handle.Quality)

	select {
	case <-finished.Wait():
	case <-ctx.Done():
		logger.Info("Exiting gracefully...")
	}

	state := ses.Snapshot()
	ses.Close()
	wg.Wait()
	fmt.Fprintln(w)

	switch state.Phase {
	case session.PhaseCompleted:
		logger.Info("Download complete")
		return nil
	case session.PhaseFailed:
		return state.Err
	default:
		return nil
	}
}

func updateBar(bar *progressbar.ProgressBar, task session.Task) {
	bar.Describe(task.StatusLine())
	if task.Status == session.TaskStatusCompleted {
		generic.Unwrap_(bar.Set(bar.GetMax()))
		return
	}
	if task.Items != nil {
		if bar.GetMax() != task.Items.TotalCount {
			bar.ChangeMax(task.Items.TotalCount)
		}
		generic.Unwrap_(bar.Set(task.Items.CurrentIndex))
		return
	}
	if bar.GetMax() != 100 {
		bar.ChangeMax(100)
	}
	generic.Unwrap_(bar.Set(int(task.Percent)))
}

func logTaskChanges(logger *zap.SugaredLogger, old, next session.Task) {
	changes, err := diff.Diff(old, next)
	if err != nil {
		logger.Errorf("failed to diff old and new task state: %v", err)
		return
	}
	for _, change := range changes {
		logger.Debugf("%v: %#v -> %#v", change.Path, change.From, change.To)
	}
}
