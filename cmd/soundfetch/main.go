package main

import cmd "github.com/rohmanhakim/soundfetch/internal/cli"

func main() {
	cmd.Execute()
}
