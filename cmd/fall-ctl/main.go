package main

import "github.com/oshokin/fall-alarm/cmd/fall-ctl/cmd"

func main() {
	cmd.Execute()
}
