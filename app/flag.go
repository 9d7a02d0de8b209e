package app

import "github.com/urfave/cli/v2"

var (
	periodFlag = &cli.StringFlag{
		Name:    "period",
		Aliases: []string{"p"},
		Usage:   "Named time period (today, yesterday, 7days, 14days, 30days, 90days, all-time)",
	}

	startFlag = &cli.StringFlag{
		Name:    "start",
		Aliases: []string{"s"},
		Usage:   "Start of the time range (natural language dates accepted)",
	}

	endFlag = &cli.StringFlag{
		Name:    "end",
		Aliases: []string{"e"},
		Usage:   "End of the time range (natural language dates accepted)",
	}

	tagFilterFlag = &cli.StringFlag{
		Name:    "tag",
		Aliases: []string{"t"},
		Usage:   "Comma-separated tags to filter by",
	}

	tagNameFlag = &cli.StringFlag{
		Name:     "name",
		Aliases:  []string{"n"},
		Usage:    "Tag name",
		Required: true,
	}

	appNameFlag = &cli.StringFlag{
		Name:     "app",
		Usage:    "Application display name for the manual attribution",
		Required: true,
	}

	bundleIDFlag = &cli.StringFlag{
		Name:  "bundle-id",
		Usage: "Stable application identifier for the manual attribution",
	}

	titleFlag = &cli.StringFlag{
		Name:  "title",
		Usage: "Window title for the manual attribution",
	}

	noteFlag = &cli.StringFlag{
		Name:  "note",
		Usage: "Free-text note recorded with the edit",
	}

	editIDFlag = &cli.StringFlag{
		Name:     "id",
		Usage:    "Identifier of the edit to undo",
		Required: true,
	}

	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Export the timeline as JSON",
	}

	csvFlag = &cli.BoolFlag{
		Name:  "csv",
		Usage: "Export the timeline as CSV",
	}

	outputFlag = &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   "Write output to a file instead of stdout",
	}

	traceFileFlag = &cli.StringFlag{
		Name:    "file",
		Aliases: []string{"f"},
		Usage:   "Sensor trace to replay (JSON lines; - for stdin)",
		Value:   "-",
	}
)

func filterFlags() []cli.Flag {
	return []cli.Flag{periodFlag, startFlag, endFlag, tagFilterFlag}
}
