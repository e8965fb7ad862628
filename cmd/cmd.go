// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func outputFlag(usage string) cli.Flag {
	return &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   usage + " (default: save to the configured storage)",
	}
}

func jsonFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "json",
		Usage: "Output raw JSON",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "format",
		Usage: "Video container: mp4 or mov",
		Value: "mp4",
	}
}

// chapterBarCommand handles the chapter bar workflow
func chapterBarCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "chapter-bar",
		Aliases: []string{"chapters", "cb"},
		Usage:   "Subtitles → chapters → chapter bar video",
		Commands: []*cli.Command{
			{
				Name:   "themes",
				Usage:  "List chapter bar themes",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ChapterBarThemes,
			},
			{
				Name:      "parse",
				Usage:     "Parse an .srt file and report its duration",
				Arguments: []cli.Argument{&cli.StringArg{Name: "file"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.ChapterBarParse,
			},
			{
				Name:      "extract",
				Usage:     "Extract chapters from an .srt file",
				Arguments: []cli.Argument{&cli.StringArg{Name: "file"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "mode",
						Usage: "ai or auto (fixed intervals)",
						Value: "ai",
					},
					&cli.IntFlag{
						Name:  "interval",
						Usage: "Seconds per chapter in auto mode (30-300)",
						Value: 60,
					},
					&cli.StringFlag{
						Name:  "csv",
						Usage: "Write chapters to a CSV file for editing",
					},
					jsonFlag(),
				},
				Action: r.ChapterBarExtract,
			},
			{
				Name:      "validate",
				Usage:     "Validate a chapter CSV against a duration",
				Arguments: []cli.Argument{&cli.StringArg{Name: "chapters"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "duration",
						Usage:    "Video duration, seconds or m:ss",
						Required: true,
					},
					jsonFlag(),
				},
				Action: r.ChapterBarValidate,
			},
			{
				Name:      "generate",
				Usage:     "Render a chapter bar video",
				Arguments: []cli.Argument{&cli.StringArg{Name: "file"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "chapters",
						Usage:    "Chapter CSV (from extract --csv)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "theme",
						Usage: "Theme name (see chapter-bar themes)",
						Value: "tech-blue",
					},
					&cli.StringFlag{
						Name:  "played",
						Usage: "Custom played color, #RRGGBB (needs --unplayed)",
					},
					&cli.StringFlag{
						Name:  "unplayed",
						Usage: "Custom unplayed color, #RRGGBB (needs --played)",
					},
					&cli.StringFlag{
						Name:  "preset",
						Usage: "Size preset: 1080p, 720p or 4K",
					},
					&cli.IntFlag{
						Name:  "width",
						Usage: "Bar width in pixels",
					},
					&cli.IntFlag{
						Name:  "height",
						Usage: "Bar height in pixels",
					},
					formatFlag(),
					outputFlag("Write the video to this path"),
				},
				Action: r.ChapterBarGenerate,
			},
			{
				Name:      "quick",
				Usage:     "AI chapters with default styling, straight to video",
				Arguments: []cli.Argument{&cli.StringArg{Name: "file"}},
				Flags: []cli.Flag{
					formatFlag(),
					outputFlag("Write the video to this path"),
				},
				Action: r.ChapterBarQuick,
			},
		},
	}
}

// progressBarCommand handles progress bar videos
func progressBarCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "progress-bar",
		Aliases: []string{"progress", "pb"},
		Usage:   "Plain progress bar videos",
		Commands: []*cli.Command{
			{
				Name:   "colors",
				Usage:  "List progress bar color presets",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.ProgressBarColors,
			},
			{
				Name:  "generate",
				Usage: "Render a progress bar video",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "duration",
						Usage: "Seconds or m:ss, up to 10 minutes",
						Value: "60",
					},
					&cli.IntFlag{
						Name:  "width",
						Usage: "Width in pixels (640-3840)",
						Value: 1920,
					},
					&cli.IntFlag{
						Name:  "height",
						Usage: "Height in pixels: 4, 8 or 12",
						Value: 8,
					},
					&cli.StringFlag{
						Name:  "color",
						Usage: "Color preset name (see progress-bar colors)",
					},
					&cli.StringFlag{
						Name:  "played",
						Usage: "Played color, #RRGGBB",
					},
					&cli.StringFlag{
						Name:  "unplayed",
						Usage: "Unplayed color, #RRGGBB",
					},
					formatFlag(),
					outputFlag("Write the video to this path"),
				},
				Action: r.ProgressBarGenerate,
			},
		},
	}
}

// showNotesCommand generates show notes from subtitles
func showNotesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "shownotes",
		Aliases:   []string{"notes"},
		Usage:     "Summary and outline from an .srt file",
		Arguments: []cli.Argument{&cli.StringArg{Name: "file"}},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-timestamps",
				Usage: "Leave timestamps out of the outline",
			},
			&cli.BoolFlag{
				Name:  "copy",
				Usage: "Copy the markdown to the clipboard",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Save the markdown to the configured storage",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the markdown to this path",
			},
			jsonFlag(),
		},
		Action: r.ShowNotes,
	}
}

// subtitleCommand polishes subtitles
func subtitleCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "subtitle",
		Aliases: []string{"sub"},
		Usage:   "Subtitle operations",
		Commands: []*cli.Command{
			{
				Name:      "polish",
				Usage:     "Fix typos and punctuation in an .srt file",
				Arguments: []cli.Argument{&cli.StringArg{Name: "file"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "only-changed",
						Usage: "Only list cues that changed",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Save the polished .srt",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the polished .srt to this path",
					},
				},
				Action: r.SubtitlePolish,
			},
		},
	}
}

// videoCommand handles the full video pipeline
func videoCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "video",
		Usage: "Upload a video and burn in overlays",
		Commands: []*cli.Command{
			{
				Name:      "process",
				Usage:     "Upload a video and produce the selected features",
				Arguments: []cli.Argument{&cli.StringArg{Name: "file"}},
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:    "features",
						Aliases: []string{"f"},
						Usage:   "chapter-bar, progress-bar, shownotes, subtitle",
						Value:   []string{"chapter-bar"},
					},
					&cli.StringFlag{
						Name:  "position",
						Usage: "Overlay position: top or bottom",
						Value: "bottom",
					},
					&cli.StringFlag{
						Name:  "theme",
						Usage: "Chapter bar theme",
						Value: "tech-blue",
					},
					&cli.StringFlag{
						Name:  "played",
						Usage: "Progress bar played color",
					},
					&cli.StringFlag{
						Name:  "unplayed",
						Usage: "Progress bar unplayed color",
					},
					&cli.BoolFlag{
						Name:  "keep",
						Usage: "Keep the server session for asr/srt/compose follow-ups",
					},
				},
				Action: r.VideoProcess,
			},
			{
				Name:      "asr",
				Usage:     "Run speech recognition on a session",
				Arguments: []cli.Argument{&cli.StringArg{Name: "session"}},
				Flags:     []cli.Flag{jsonFlag()},
				Action:    r.VideoASR,
			},
			{
				Name:      "srt",
				Usage:     "Download a session's transcript",
				Arguments: []cli.Argument{&cli.StringArg{Name: "session"}},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write the transcript to this path",
					},
				},
				Action: r.VideoSRT,
			},
			{
				Name:      "cleanup",
				Usage:     "Delete a server session",
				Arguments: []cli.Argument{&cli.StringArg{Name: "session"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "all",
						Usage: "Clean up every session still marked active",
					},
				},
				Action: r.VideoCleanup,
			},
			{
				Name:   "sessions",
				Usage:  "List sessions not yet cleaned up",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.VideoSessions,
			},
		},
	}
}

// youtubeCommand turns a YouTube link into chapters
func youtubeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "youtube",
		Aliases:   []string{"yt"},
		Usage:     "Chapters from a YouTube link",
		Arguments: []cli.Argument{&cli.StringArg{Name: "url"}},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "copy",
				Usage: "Copy the chapter list to the clipboard",
			},
			jsonFlag(),
		},
		Action: r.YouTube,
	}
}

// historyCommand lists saved artifacts
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List saved outputs",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "feature",
				Usage: "Only show one feature",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of entries",
				Value: 20,
			},
			jsonFlag(),
		},
		Action: r.History,
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the backend API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the backend, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// setupCommand handles setup operations for config, database and extra headers.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config.toml with defaults",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the latest migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "headers",
				Usage: "Import extra request headers from a browser cURL command",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "Where to keep the command (default: ~/.vmarker/headers.sh)",
					},
				},
				Action: r.SetupHeaders,
			},
		},
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with a magic link or an OAuth provider",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "email",
						Usage: "Send a magic link to this address",
					},
					&cli.StringFlag{
						Name:  "provider",
						Usage: "OAuth provider: github or google",
					},
					&cli.DurationFlag{
						Name:  "wait",
						Usage: "How long to wait for the browser redirect",
						Value: defaultLoginWait,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Sign out",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the local session",
				Action: r.AuthStatus,
			},
			{
				Name:   "me",
				Usage:  "Ask the backend who we are",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AuthMe,
			},
			{
				Name:   "check",
				Usage:  "Check whether the backend accepts the session",
				Flags:  []cli.Flag{jsonFlag()},
				Action: r.AuthCheck,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive terminal UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Directory the file pickers start in",
				Value: ".",
			},
		},
		Action: r.TUI,
	}
}
