package main

import "github.com/oshokin/fall-alarm/cmd/fall-monitor/cmd"

func main() {
	cmd.Execute()
}
