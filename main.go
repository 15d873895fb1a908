package main

import "fedora-updater/cmd"

func main() {
	cmd.Execute()
}
