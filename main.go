package main

import "github.com/nextlevelbuilder/gopair/cmd"

func main() {
	cmd.Execute()
}
