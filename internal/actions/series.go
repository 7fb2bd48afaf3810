package actions

import (
	"golang.org/x/sync/errgroup"

	"stackit.dev/pstack/internal/output"
	"stackit.dev/pstack/internal/runtime"
	"stackit.dev/pstack/internal/stack"
)

// descriptionWorkers bounds how many commits are read at once
const descriptionWorkers = 8

// SeriesOptions contains options for the series command
type SeriesOptions struct {
	Branch          string
	ShowCommits     bool
	ShowDescription bool
	ShowHidden      bool
}

// SeriesAction lists the patches of a stack, bottom to top
func SeriesAction(ctx *runtime.Context, opts SeriesOptions) error {
	branch, err := StackBranch(ctx, opts.Branch)
	if err != nil {
		return err
	}
	s, err := ctx.Engine.Load(ctx, branch)
	if err != nil {
		return err
	}

	lines, err := seriesLines(ctx, s, opts)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		ctx.Splog.Info("No patches on %s.", branch)
	} else {
		ctx.Splog.Page(output.RenderSeries(lines, output.SeriesOptions{
			ShowCommits:     opts.ShowCommits,
			ShowDescription: opts.ShowDescription,
		}))
	}

	pending, err := ctx.Engine.HasPending(branch)
	if err != nil {
		return err
	}
	if pending {
		ctx.Splog.Warn("An operation on %s is stopped at a conflict; the listing shows the stack before it.", branch)
	}
	return nil
}

func seriesLines(ctx *runtime.Context, s *stack.Stack, opts SeriesOptions) ([]output.SeriesLine, error) {
	var lines []output.SeriesLine
	for i, name := range s.Applied {
		status := output.StatusApplied
		if i == len(s.Applied)-1 {
			status = output.StatusTop
		}
		lines = append(lines, output.SeriesLine{Name: name, Status: status, Commit: s.Commit(name)})
	}
	for _, name := range s.Unapplied {
		lines = append(lines, output.SeriesLine{Name: name, Status: output.StatusUnapplied, Commit: s.Commit(name)})
	}
	if opts.ShowHidden {
		for _, name := range s.Hidden {
			lines = append(lines, output.SeriesLine{Name: name, Status: output.StatusHidden, Commit: s.Commit(name)})
		}
	}
	if !opts.ShowDescription {
		return lines, nil
	}

	store := ctx.Engine.Store()
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(descriptionWorkers)
	for i := range lines {
		g.Go(func() error {
			c, err := store.ReadCommit(lines[i].Commit)
			if err != nil {
				return err
			}
			lines[i].Description = c.Subject()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return lines, nil
}
