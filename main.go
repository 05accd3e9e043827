package main

import "github.com/lepinkainen/biblio/cmd"

var execute = cmd.Execute

func main() {
	execute()
}
