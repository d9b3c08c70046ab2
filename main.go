package main

import "fipe-garimpo/commands"

func main() {
	commands.Execute()
}
