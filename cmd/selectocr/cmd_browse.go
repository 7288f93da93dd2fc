// cmd_browse.go: Drives a live browser page with go-rod
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/spf13/cobra"

	selectocr "github.com/agilira/go-selectocr"
)

var (
	browseHeadless     bool
	browseControlURL   string
	browseBinding      string
	browseAutoDismiss  bool
	browseDrainTimeout time.Duration
)

var browseCmd = &cobra.Command{
	Use:   "browse <url>",
	Short: "Open a page and let it trigger recognition of its selection",
	Long: `Opens url in Chrome and exposes a page function (window.selectocrRecognize
by default). Each call recognizes the image in the current selection and
inserts the text there. Messages are shown with window.alert.

With --config the file is watched and the missing parameter policy is
reloaded on change. The command runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().BoolVar(&browseHeadless, "headless", false, "Run the browser without a window")
	browseCmd.Flags().StringVar(&browseControlURL, "control-url", "", "Connect to a running browser instead of launching one")
	browseCmd.Flags().StringVar(&browseBinding, "binding", "selectocrRecognize", "Name of the page function")
	browseCmd.Flags().BoolVar(&browseAutoDismiss, "auto-dismiss", false, "Accept alert dialogs immediately")
	browseCmd.Flags().DurationVar(&browseDrainTimeout, "drain-timeout", 10*time.Second, "How long to wait for running recognitions on exit")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := commandLogger()
	p, err := newPipeline(activeConfig, log)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	if configPath != "" && !cmd.Flags().Changed("missing-param") {
		watcher := selectocr.NewConfigWatcher(configPath, selectocr.DefaultConfigWatcherOptions(), func(cfg selectocr.Config) {
			if err := p.pathParams.SetPolicy(cfg.PathParams.MissingParam); err != nil {
				log.Warn("Ignoring missing parameter policy", "error", err)
			}
		}, log)
		if err := watcher.Start(); err != nil {
			return err
		}
		defer func() { _ = watcher.Stop() }()
	}

	controlURL := browseControlURL
	if controlURL == "" {
		controlURL, err = launcher.New().Headless(browseHeadless).Launch()
		if err != nil {
			return fmt.Errorf("launch chrome: %w", err)
		}
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}
	defer func() { _ = browser.Close() }()

	page, err := browser.Page(proto.TargetCreateTarget{URL: args[0]})
	if err != nil {
		return fmt.Errorf("open page: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait for page load: %w", err)
	}

	metrics := selectocr.NewDefaultMetricsCollector()
	p.registry.SetMetricsCollector(metrics)

	flow := selectocr.NewRecognitionFlow(
		selectocr.NewRodDocument(page),
		p.recognizer,
		selectocr.NewRodNotifier(page, browseAutoDismiss, log),
		log,
		selectocr.WithMetrics(metrics),
	)
	unexpose, err := selectocr.ExposeRecognition(page, browseBinding, flow)
	if err != nil {
		return err
	}
	defer func() { _ = unexpose() }()

	log.Info("Page ready", "url", args[0], "binding", "window."+browseBinding)
	fmt.Fprintf(cmd.ErrOrStderr(), "Call window.%s() in the page to recognize the selected image. Ctrl+C to quit.\n", browseBinding)

	<-ctx.Done()

	if err := flow.Tracker().GracefulDrain(selectocr.DrainOptions{
		DrainTimeout:            browseDrainTimeout,
		ForceCancelAfterTimeout: true,
	}); err != nil {
		log.Warn("Recognitions still running at shutdown", "error", err)
	}
	log.Info("Browse session finished", "metrics", metrics.GetMetrics())
	return nil
}
