// deskprefs - wallpaper catalog and screensaver settings for the UKUI desktop
//
// deskprefs merges the UKUI wallpaper lists into one catalog and drives the
// screensaver settings page from the command line.
package main

import (
	"github.com/joho/godotenv"

	"github.com/ukui/deskprefs/internal/cli"
)

func main() {
	// A .env file may carry DESKPREFS_* overrides during development.
	_ = godotenv.Load()

	cli.Execute()
}
