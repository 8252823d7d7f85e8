package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Ratio1/poststats_go/pkg/page"
	"github.com/Ratio1/poststats_go/pkg/poststats"
	"github.com/Ratio1/poststats_go/pkg/reconcile"
)

// session is one simulated page load: the parsed page, the runtime resolved
// from the environment and a reconciler that has completed Run.
type session struct {
	doc    *page.Document
	rt     *poststats.Runtime
	rec    *reconcile.Reconciler
	logger *slog.Logger
}

func openSession(cmd *cobra.Command, opts *RootOptions, path string) (*session, *ExitError) {
	cfg, err := poststats.LoadConfig()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	logger := newLogger(opts, cmd.ErrOrStderr(), cfg.LogLevel)

	doc, exitErr := loadDocument(path)
	if exitErr != nil {
		return nil, exitErr
	}

	rtOpts := append([]poststats.Option{poststats.WithLogger(logger)}, opts.runtimeOpts...)
	rt, err := poststats.Open(cfg, rtOpts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open runtime", err)
	}
	logger.Debug("runtime opened", "mode", rt.Mode, "storage", rt.Backend)

	notice := reconcile.NotifierFunc(func(msg string) {
		fmt.Fprintln(cmd.ErrOrStderr(), msg)
	})
	rec := rt.Reconciler(doc, reconcile.WithNotifier(notice))
	if err := rec.Run(cmd.Context()); err != nil {
		rec.Close()
		_ = rt.Close()
		return nil, WrapExitError(ExitCommandError, "page load interrupted", err)
	}
	return &session{doc: doc, rt: rt, rec: rec, logger: logger}, nil
}

// close stops view scheduling and drains pending reports.
func (s *session) close() {
	s.rec.Close()
	if err := s.rt.Close(); err != nil {
		s.logger.Error("error closing runtime", "error", err)
	}
}

// writePage writes the page to path, or to w when path is empty.
func (s *session) writePage(path string, w io.Writer) error {
	if path == "" {
		return s.doc.Render(w)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".poststats-*.html")
	if err != nil {
		return err
	}
	if err := s.doc.Render(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
