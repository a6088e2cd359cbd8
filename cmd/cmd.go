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

func userFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "Acting Spotify user ID",
		Required: true,
	}
}

// setupCommand handles setup operations for database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles Spotify authentication.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate with Spotify using OAuth2",
				Action: r.AuthLogin,
			},
			{
				Name:  "status",
				Usage: "Check whether a user has a stored Spotify token",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "user"},
				},
				Action: r.AuthStatus,
			},
		},
	}
}

// stationCommand handles station operations.
func stationCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "station",
		Aliases: []string{"st"},
		Usage:   "Create, start and join listening stations",
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Register a new station",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "name",
						Usage: "Display name (defaults to the id)",
					},
				},
				Action: r.StationCreate,
			},
			{
				Name:      "start",
				Usage:     "Become the station's owner with your current playback",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{userFlag()},
				Action:    r.StationStart,
			},
			{
				Name:      "join",
				Usage:     "Synchronize your device with the station owner's playhead",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{userFlag()},
				Action:    r.StationJoin,
			},
			{
				Name:      "owner",
				Usage:     "Transfer station ownership",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags:     []cli.Flag{userFlag()},
				Action:    r.StationOwner,
			},
			{
				Name:      "status",
				Usage:     "Show the station and its listeners",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.StationStatus,
			},
		},
	}
}

// serveCommand runs the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the station HTTP API",
		Action: r.Serve,
	}
}

// watchCommand launches the interactive station watch TUI.
func watchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Watch a station's listeners in a live TUI",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
		Action:    r.Watch,
	}
}
