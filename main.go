package main

import "kbsearch/cmd"

func main() {
	cmd.Execute()
}
