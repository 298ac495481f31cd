package main

import "github.com/lepinkainen/concierge/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
