package main

import "github.com/tallyreco/tds/tds/cmd"

func main() {
	cmd.Execute()
}
