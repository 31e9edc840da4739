// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
		},
	}
}

// setupCommand handles configuration and cache bootstrap
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and local cache",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write a config file from the built-in template",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
			{
				Name:   "status",
				Usage:  "Show applied migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupStatus,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupRollback,
			},
		},
	}
}

// authCommand handles accounts and the local session
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Log in, register and manage your account",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in and store the session token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Sources:  cli.EnvVars("MOOVIE_PASSWORD"),
						Required: true,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "first-name", Usage: "First name", Required: true},
					&cli.StringFlag{Name: "last-name", Usage: "Last name", Required: true},
					&cli.IntFlag{Name: "age", Usage: "Age (1-120)", Required: true},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Password (8+ chars, upper, lower, digit, symbol)",
						Sources:  cli.EnvVars("MOOVIE_PASSWORD"),
						Required: true,
					},
					&cli.StringFlag{
						Name:  "confirm-password",
						Usage: "Repeat the password (defaults to --password)",
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "profile",
				Usage:  "Show the logged-in user",
				Flags:  outputFlags(),
				Action: r.AuthProfile,
			},
			{
				Name:  "update",
				Usage: "Update profile fields",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "first-name", Usage: "New first name"},
					&cli.StringFlag{Name: "last-name", Usage: "New last name"},
					&cli.IntFlag{Name: "age", Usage: "New age (1-120)"},
					&cli.StringFlag{Name: "email", Usage: "New email"},
					&cli.StringFlag{Name: "password", Usage: "New password", Sources: cli.EnvVars("MOOVIE_NEW_PASSWORD")},
				},
				Action: r.AuthUpdate,
			},
			{
				Name:  "delete",
				Usage: "Delete your account",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Confirm deletion",
					},
				},
				Action: r.AuthDelete,
			},
			{
				Name:  "recover",
				Usage: "Request a password recovery email",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
				},
				Action: r.AuthRecover,
			},
			{
				Name:  "import",
				Usage: "Import a browser session from a copied cURL request",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
				},
				Action: r.AuthImport,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:   "status",
				Usage:  "Show the stored session and token expiry",
				Action: r.AuthStatus,
			},
		},
	}
}

// moviesCommand handles catalog browsing
func moviesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "movies",
		Aliases: []string{"m"},
		Usage:   "Browse the catalog",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List movies",
				Flags: append(outputFlags(),
					&cli.StringFlag{
						Name:    "genre",
						Aliases: []string{"g"},
						Usage:   "Only movies of this genre",
					},
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Match title or description",
					},
					&cli.BoolFlag{
						Name:  "cached",
						Usage: "Read from the local cache instead of the API",
					},
					&cli.BoolFlag{
						Name:  "favorites",
						Usage: "Only your favorites",
					},
					&cli.StringFlag{
						Name:  "csv",
						Usage: "Write the list to a CSV file",
					},
				),
				Action: r.MoviesList,
			},
			{
				Name:  "show",
				Usage: "Show a movie with its comments",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: append(outputFlags(),
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Save the movie to <id>.json",
					},
					&cli.BoolFlag{
						Name:  "cached",
						Usage: "Read the movie from the local cache",
					},
				),
				Action: r.MoviesShow,
			},
			{
				Name:   "genres",
				Usage:  "List genres in the catalog",
				Flags:  outputFlags(),
				Action: r.MoviesGenres,
			},
		},
	}
}

// favoritesCommand handles the per-user favorites relation
func favoritesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "favorites",
		Aliases: []string{"fav"},
		Usage:   "Manage your favorite movies",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List your favorites",
				Flags:  outputFlags(),
				Action: r.FavoritesList,
			},
			{
				Name:  "toggle",
				Usage: "Add or remove a movie from your favorites",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.FavoritesToggle,
			},
			{
				Name:  "check",
				Usage: "Report whether a movie is a favorite",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Action: r.FavoritesCheck,
			},
		},
	}
}

// commentsCommand handles comments on a movie
func commentsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "comments",
		Usage: "Read, post and delete comments",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List comments on a movie",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "movie"},
				},
				Flags:  outputFlags(),
				Action: r.CommentsList,
			},
			{
				Name:  "post",
				Usage: "Comment on a movie",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "movie"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "text",
						Aliases:  []string{"t"},
						Usage:    "Comment text",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "rating",
						Aliases: []string{"r"},
						Usage:   "Rating from 1 to 5",
						Value:   5,
					},
				},
				Action: r.CommentsPost,
			},
			{
				Name:  "delete",
				Usage: "Delete one of your comments",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "movie"},
					&cli.StringArg{Name: "comment"},
				},
				Action: r.CommentsDelete,
			},
		},
	}
}

// playCommand resolves a movie's video
func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Resolve a movie's video and optionally open it",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "id"},
		},
		Flags: append(outputFlags(),
			&cli.BoolFlag{
				Name:    "open",
				Aliases: []string{"o"},
				Usage:   "Open the video (or poster) once resolved",
			},
			&cli.StringFlag{
				Name:  "player",
				Usage: "Media player executable (default: system handler)",
			},
		),
		Action: r.Play,
	}
}

// mediaCommand handles the stock-media proxy
func mediaCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "media",
		Usage: "Search the stock-media proxy",
		Commands: []*cli.Command{
			{
				Name:  "videos",
				Usage: "Search stock videos",
				Flags: append(outputFlags(),
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Search term",
						Value:   "movie",
					},
					&cli.IntFlag{Name: "per-page", Usage: "Results per page", Value: 10},
					&cli.IntFlag{Name: "min-duration", Usage: "Minimum duration in seconds"},
					&cli.IntFlag{Name: "max-duration", Usage: "Maximum duration in seconds"},
				),
				Action: r.MediaVideos,
			},
			{
				Name:  "photos",
				Usage: "Search stock photos",
				Flags: append(outputFlags(),
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "Search term",
						Value:   "cinema",
					},
					&cli.IntFlag{Name: "per-page", Usage: "Results per page", Value: 10},
				),
				Action: r.MediaPhotos,
			},
			{
				Name:   "trailers",
				Usage:  "List the landing-page trailers from config",
				Flags:  outputFlags(),
				Action: r.MediaTrailers,
			},
		},
	}
}

// cacheCommand handles the local SQLite cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the local cache",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show cached movie and favorites counts",
				Action: r.CacheStatus,
			},
			{
				Name:  "clear",
				Usage: "Empty the cache",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "movies", Usage: "Only clear cached movies"},
					&cli.BoolFlag{Name: "favorites", Usage: "Only clear cached favorites"},
				},
				Action: r.CacheClear,
			},
		},
	}
}

// exportCommand handles bulk export
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export movies with their comments",
		ArgsUsage: "[movie ids...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "json, csv, markdown or txt",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default moovie_export_<timestamp>)",
			},
			&cli.IntFlag{Name: "workers", Usage: "Concurrent exports (max 10)", Value: 5},
			&cli.FloatFlag{Name: "rate", Usage: "Movie fetches per second", Value: 5},
			&cli.BoolFlag{Name: "posters", Usage: "Download posters for markdown exports"},
		},
		Action: r.Export,
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the catalog API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints raw JSON",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
						Value: true,
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
						Name:    "data",
						Aliases: []string{"d"},
						Usage:   "JSON body to send",
					},
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Read the JSON body from a file",
					},
				},
				Action: r.APIPost,
			},
			{
				Name:  "dump",
				Usage: "Dump catalog, profile, favorites and trailers as JSON",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Save dump to api_dump.json",
						Value: false,
					},
				},
				Action: r.APIDump,
			},
		},
	}
}

// tuiCommand launches the interactive interface
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Browse and play movies interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "player",
				Usage: "Media player executable (default: system handler)",
			},
			&cli.StringFlag{
				Name:  "log",
				Usage: "Log file",
				Value: "./tmp/moovie-tui.log",
			},
		},
		Action: r.TUI,
	}
}
