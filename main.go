package main

import "github.com/mselser95/updown-arb/cmd"

func main() {
	cmd.Execute()
}
