// Package config provides runtime settings and game presets for the Genial
// server.
//
// The config package handles:
//   - Parsing server settings from GENIAL_* and NGROK_* environment variables
//   - Validating heartbeat, sweep and storage settings
//   - Built-in and file-based game presets
//
// Presets:
//
// A preset fixes the board size, declared player count and whether
// progress is shown to other players. Presets are stored as JSON files in
// the presets directory and override the built-in ones by name:
//
//	{
//	  "name": "quick",
//	  "description": "Small board, two players",
//	  "board_size": 6,
//	  "player_count": 2,
//	  "show_progress": true
//	}
//
// Usage:
//
//	settings, err := config.LoadSettings()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	presets, err := config.NewManager(settings.PresetsDir)
//	classic, err := presets.Preset("classic")
package config
