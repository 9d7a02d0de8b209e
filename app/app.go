// Package app defines the lapse command-line interface.
package app

import (
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/lapse/config"
)

// Get returns the lapse CLI application.
func Get() *cli.App {
	return &cli.App{
		Name:    "lapse",
		Usage:   "records which application held focus while you were working, and rebuilds an editable attribution timeline",
		Version: config.Version,
		Commands: []*cli.Command{
			{
				Name:   "replay",
				Usage:  "Run the working-state machine over a recorded sensor trace",
				Action: replayAction,
				Flags:  []cli.Flag{traceFileFlag},
			},
			{
				Name:   "timeline",
				Usage:  "Print the effective timeline for a time range",
				Action: timelineAction,
				Flags: append(
					filterFlags(),
					jsonFlag, csvFlag, outputFlag,
				),
			},
			{
				Name:   "report",
				Usage:  "Summarize attributed time per application and tag",
				Action: reportAction,
				Flags:  filterFlags(),
			},
			{
				Name:   "delete",
				Usage:  "Remove a time range from the effective timeline",
				Action: deleteAction,
				Flags:  []cli.Flag{startFlag, endFlag, noteFlag},
			},
			{
				Name:   "add",
				Usage:  "Manually attribute a time range to an application",
				Action: addAction,
				Flags: []cli.Flag{
					startFlag, endFlag, appNameFlag, bundleIDFlag,
					titleFlag, noteFlag,
				},
			},
			{
				Name:   "tag",
				Usage:  "Attach a tag to a time range",
				Action: tagAction,
				Flags:  []cli.Flag{startFlag, endFlag, tagNameFlag, noteFlag},
			},
			{
				Name:   "untag",
				Usage:  "Remove a tag from a time range",
				Action: untagAction,
				Flags:  []cli.Flag{startFlag, endFlag, tagNameFlag, noteFlag},
			},
			{
				Name:   "undo",
				Usage:  "Undo a previous edit (or a previous undo)",
				Action: undoAction,
				Flags:  []cli.Flag{editIDFlag},
			},
			{
				Name:   "edits",
				Usage:  "List all recorded edits and their current status",
				Action: editsAction,
			},
		},
	}
}
