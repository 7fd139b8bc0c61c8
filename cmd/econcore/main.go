// Econcore runs the player economy: an interactive console, an HTTP
// server, and admin and maintenance commands.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
